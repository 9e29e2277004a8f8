package zendesk

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/application/bridge"
	"deskbridge/internal/interfaces/http/handlers/common"
	"deskbridge/internal/interfaces/http/handlers/testutil"
	"deskbridge/internal/interfaces/http/middleware"
	"deskbridge/internal/shared/biztime"
	"deskbridge/internal/shared/services/markdown"
)

const testSecret = "dGhpc19zZWNyZXRfaXNfZm9yX3Rlc3Rpbmc="

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingEngine struct {
	mu     sync.Mutex
	events []bridge.TicketEvent
}

func (e *recordingEngine) HandleTicketEvent(_ context.Context, ev bridge.TicketEvent) (bridge.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return bridge.OutcomeRelayed, nil
}

func newRouter(t *testing.T, secret string) (*gin.Engine, *recordingEngine, *common.Dispatcher) {
	t.Helper()
	log := testutil.NewMockLogger()
	engine := &recordingEngine{}
	dispatcher := common.NewDispatcher(time.Second, log)
	clock := biztime.NewFakeClock(testNow)
	h := NewHandler(engine, dispatcher, markdown.NewMarkdownService(), clock, log)

	router := gin.New()
	router.POST("/zendesk/webhook", middleware.ZendeskSignature(secret, clock, log), h.HandleWebhook)
	return router, engine, dispatcher
}

func TestHandleWebhookDispatchesComment(t *testing.T) {
	router, engine, dispatcher := newRouter(t, testSecret)
	body := testutil.JSONBody(map[string]any{
		"ticket_id": "4321",
		"current_comment": map[string]any{
			"html_body":   "<p>We shipped a <strong>replacement</strong>.</p>",
			"public":      true,
			"author_name": "Dana Agent",
		},
		"updated_at": "2026-03-01T08:59:00Z",
	})

	w := testutil.Serve(router, testutil.NewZendeskRequest("/zendesk/webhook", body, testSecret, testNow))
	require.Equal(t, http.StatusOK, w.Code)

	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)

	dispatcher.Wait()
	engine.mu.Lock()
	defer engine.mu.Unlock()
	require.Len(t, engine.events, 1)
	ev := engine.events[0]
	assert.Equal(t, int64(4321), ev.TicketID)
	assert.Equal(t, "Dana Agent", ev.AuthorName)
	assert.True(t, ev.Public)
	assert.Contains(t, ev.Body, "We shipped a replacement.")
	assert.Equal(t, time.Date(2026, 3, 1, 8, 59, 0, 0, time.UTC), ev.OccurredAt)
}

func TestHandleWebhookMissingTicketID(t *testing.T) {
	router, engine, dispatcher := newRouter(t, testSecret)
	body := testutil.JSONBody(map[string]any{
		"current_comment": map[string]any{"body": "hello"},
	})

	w := testutil.Serve(router, testutil.NewZendeskRequest("/zendesk/webhook", body, testSecret, testNow))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, testutil.Contains(w, "no ticket id"))

	dispatcher.Wait()
	assert.Empty(t, engine.events)
}

func TestHandleWebhookRejectsMalformedJSON(t *testing.T) {
	router, _, _ := newRouter(t, testSecret)
	w := testutil.Serve(router, testutil.NewZendeskRequest("/zendesk/webhook", []byte("<xml/>"), testSecret, testNow))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleWebhookSignature(t *testing.T) {
	body := testutil.JSONBody(map[string]any{"ticket_id": 1})

	t.Run("wrong secret", func(t *testing.T) {
		router, _, _ := newRouter(t, testSecret)
		w := testutil.Serve(router, testutil.NewZendeskRequest("/zendesk/webhook", body, "other", testNow))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("replayed after the window", func(t *testing.T) {
		router, engine, _ := newRouter(t, testSecret)
		signedAt := testNow.Add(-10 * time.Minute)
		w := testutil.Serve(router, testutil.NewZendeskRequest("/zendesk/webhook", body, testSecret, signedAt))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, engine.events)
	})

	t.Run("not configured", func(t *testing.T) {
		router, _, _ := newRouter(t, "")
		w := testutil.Serve(router, testutil.NewZendeskRequest("/zendesk/webhook", body, testSecret, testNow))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
