package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/infrastructure/cache"
)

func TestAlertSinkDeduplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	var posts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CALERT", body["channel"])
		posts.Add(1)
		writeJSON(w, map[string]any{"ok": true, "ts": "1.0"})
	})
	sink := NewAlertSink(client, "CALERT", cache.NewAlertDeduplicator(rdb, time.Minute))
	ctx := context.Background()

	first := "*ERROR* in deskbridge\n*Message:* relay failed\n*Time:* 2026-03-01T09:00:00Z\n*Error:* boom"
	repeat := "*ERROR* in deskbridge\n*Message:* relay failed\n*Time:* 2026-03-01T09:00:05Z\n*Error:* boom"
	other := "*ERROR* in deskbridge\n*Message:* store failed\n*Time:* 2026-03-01T09:00:05Z"

	require.NoError(t, sink.SendAlert(ctx, first))
	require.NoError(t, sink.SendAlert(ctx, repeat))
	require.NoError(t, sink.SendAlert(ctx, other))
	assert.Equal(t, int32(2), posts.Load())

	mr.FastForward(2 * time.Minute)
	require.NoError(t, sink.SendAlert(ctx, repeat))
	assert.Equal(t, int32(3), posts.Load())
}

func TestAlertSinkWithoutDeduplicator(t *testing.T) {
	var posts atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		writeJSON(w, map[string]any{"ok": true, "ts": "1.0"})
	})
	sink := NewAlertSink(client, "CALERT", nil)

	require.NoError(t, sink.SendAlert(context.Background(), "same"))
	require.NoError(t, sink.SendAlert(context.Background(), "same"))
	assert.Equal(t, int32(2), posts.Load())
}
