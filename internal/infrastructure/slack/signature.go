package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

const (
	HeaderTimestamp = "X-Slack-Request-Timestamp"
	HeaderSignature = "X-Slack-Signature"

	signatureVersion = "v0"
	// MaxRequestAge bounds how old a signed request may be to defeat replays.
	MaxRequestAge = 5 * time.Minute
)

var (
	ErrMissingSignature = errors.New("slack: missing signature headers")
	ErrStaleRequest     = errors.New("slack: request timestamp outside allowed window")
	ErrInvalidSignature = errors.New("slack: signature mismatch")
)

// Sign computes the v0 signature of body sent at timestamp.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signatureVersion + ":" + timestamp + ":"))
	mac.Write(body)
	return signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a request signed with the app's signing secret.
func VerifySignature(secret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrStaleRequest
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > MaxRequestAge || age < -MaxRequestAge {
		return ErrStaleRequest
	}
	expected := Sign(secret, timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
