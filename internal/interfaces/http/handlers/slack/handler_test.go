package slack

import (
	"context"
	"encoding/json"
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
)

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

type recordingEngine struct {
	mu        sync.Mutex
	messages  []bridge.ChatMessageEvent
	shortcuts []bridge.ShortcutEvent
}

func (e *recordingEngine) HandleChatMessage(_ context.Context, ev bridge.ChatMessageEvent) (bridge.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, ev)
	return bridge.OutcomeRelayed, nil
}

func (e *recordingEngine) HandleShortcut(_ context.Context, ev bridge.ShortcutEvent) (bridge.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shortcuts = append(e.shortcuts, ev)
	return bridge.OutcomeTicketCreated, nil
}

type fixture struct {
	router     *gin.Engine
	engine     *recordingEngine
	dispatcher *common.Dispatcher
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	log := testutil.NewMockLogger()
	engine := &recordingEngine{}
	dispatcher := common.NewDispatcher(time.Second, log)
	h := NewHandler(engine, dispatcher, log)

	router := gin.New()
	group := router.Group("/slack", middleware.SlackSignature(testSecret, biztime.NewFakeClock(now), log))
	group.POST("/events", h.HandleEvents)
	group.POST("/interactivity", h.HandleInteractivity)

	return &fixture{router: router, engine: engine, dispatcher: dispatcher, now: now}
}

func TestHandleEventsURLVerification(t *testing.T) {
	f := newFixture(t)
	body := testutil.JSONBody(map[string]any{
		"type":      "url_verification",
		"challenge": "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P",
	})

	w := testutil.Serve(f.router, testutil.NewSlackRequest("/slack/events", "application/json", body, testSecret, f.now))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P", resp["challenge"])
}

func TestHandleEventsDispatchesMessage(t *testing.T) {
	f := newFixture(t)
	body := testutil.JSONBody(map[string]any{
		"type":     "event_callback",
		"event_id": "Ev01",
		"event": map[string]any{
			"type":      "message",
			"channel":   "C1",
			"user":      "U1",
			"text":      "still broken",
			"ts":        "1700000001.000200",
			"thread_ts": "1700000000.000100",
		},
	})

	w := testutil.Serve(f.router, testutil.NewSlackRequest("/slack/events", "application/json", body, testSecret, f.now))
	require.Equal(t, http.StatusOK, w.Code)

	f.dispatcher.Wait()
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	require.Len(t, f.engine.messages, 1)
	ev := f.engine.messages[0]
	assert.Equal(t, "Ev01", ev.EventID)
	assert.Equal(t, "C1", ev.ChannelID)
	assert.Equal(t, "1700000000.000100", ev.ThreadTS)
	assert.Equal(t, "still broken", ev.Message.Text)
}

func TestHandleEventsIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	body := testutil.JSONBody(map[string]any{
		"type":     "event_callback",
		"event_id": "Ev02",
		"event":    map[string]any{"type": "reaction_added", "user": "U1"},
	})

	w := testutil.Serve(f.router, testutil.NewSlackRequest("/slack/events", "application/json", body, testSecret, f.now))
	require.Equal(t, http.StatusOK, w.Code)

	f.dispatcher.Wait()
	assert.Empty(t, f.engine.messages)
}

func TestHandleEventsRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	body := testutil.JSONBody(map[string]any{"type": "url_verification", "challenge": "x"})

	w := testutil.Serve(f.router, testutil.NewSlackRequest("/slack/events", "application/json", body, "wrong-secret", f.now))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stale := testutil.NewSlackRequest("/slack/events", "application/json", body, testSecret, f.now.Add(-10*time.Minute))
	w = testutil.Serve(f.router, stale)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleEventsRejectsMalformedJSON(t *testing.T) {
	f := newFixture(t)
	w := testutil.Serve(f.router, testutil.NewSlackRequest("/slack/events", "application/json", []byte("{not json"), testSecret, f.now))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleInteractivityDispatchesShortcut(t *testing.T) {
	f := newFixture(t)
	payload := map[string]any{
		"type":        "message_action",
		"callback_id": "create_zendesk_ticket",
		"user":        map[string]any{"id": "U9"},
		"channel":     map[string]any{"id": "C1"},
		"message": map[string]any{
			"type": "message",
			"user": "U1",
			"text": "*Subject:* Printer on fire",
			"ts":   "1700000000.000100",
		},
	}

	w := testutil.Serve(f.router, testutil.NewSlackInteraction("/slack/interactivity", payload, testSecret, f.now))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	f.dispatcher.Wait()
	f.engine.mu.Lock()
	defer f.engine.mu.Unlock()
	require.Len(t, f.engine.shortcuts, 1)
	ev := f.engine.shortcuts[0]
	assert.Equal(t, "create_zendesk_ticket", ev.CallbackID)
	assert.Equal(t, "U9", ev.UserID)
	assert.Equal(t, "C1", ev.Target.ChannelID)
	assert.Equal(t, "1700000000.000100", ev.Target.TS)
}

func TestHandleInteractivityIgnoresGlobalShortcut(t *testing.T) {
	f := newFixture(t)
	payload := map[string]any{
		"type":        "shortcut",
		"callback_id": "something_else",
		"user":        map[string]any{"id": "U9"},
	}

	w := testutil.Serve(f.router, testutil.NewSlackInteraction("/slack/interactivity", payload, testSecret, f.now))
	require.Equal(t, http.StatusOK, w.Code)

	f.dispatcher.Wait()
	assert.Empty(t, f.engine.shortcuts)
}

func TestHandleInteractivityRequiresPayload(t *testing.T) {
	f := newFixture(t)
	w := testutil.Serve(f.router, testutil.NewSlackRequest("/slack/interactivity", "application/x-www-form-urlencoded", []byte("foo=bar"), testSecret, f.now))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
