package slack

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := []byte(`{"type":"event_callback"}`)
	sig := Sign("secret", ts, body)

	tests := []struct {
		name      string
		secret    string
		timestamp string
		signature string
		body      []byte
		now       time.Time
		want      error
	}{
		{"valid", "secret", ts, sig, body, now, nil},
		{"slightly late", "secret", ts, sig, body, now.Add(4 * time.Minute), nil},
		{"stale", "secret", ts, sig, body, now.Add(6 * time.Minute), ErrStaleRequest},
		{"from the future", "secret", ts, sig, body, now.Add(-6 * time.Minute), ErrStaleRequest},
		{"wrong secret", "other", ts, sig, body, now, ErrInvalidSignature},
		{"tampered body", "secret", ts, sig, []byte(`{"type":"url_verification"}`), now, ErrInvalidSignature},
		{"missing signature", "secret", ts, "", body, now, ErrMissingSignature},
		{"garbage timestamp", "secret", "yesterday", sig, body, now, ErrStaleRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.secret, tt.timestamp, tt.signature, tt.body, tt.now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignFormat(t *testing.T) {
	sig := Sign("8f742231b10e8888abcd99yyyzzz85a5", "1531420618",
		[]byte("token=xyzz0WbapA4vBCDEFasx0q6G&team_id=T1DC2JH3J"))
	assert.Regexp(t, `^v0=[0-9a-f]{64}$`, sig)
}
