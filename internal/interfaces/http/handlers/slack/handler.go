package slack

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"deskbridge/internal/application/bridge"
	slackInfra "deskbridge/internal/infrastructure/slack"
	"deskbridge/internal/interfaces/http/handlers/common"
	"deskbridge/internal/interfaces/http/middleware"
	"deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/utils"
)

// ChatEventHandler processes chat-side events.
type ChatEventHandler interface {
	HandleChatMessage(ctx context.Context, ev bridge.ChatMessageEvent) (bridge.Outcome, error)
	HandleShortcut(ctx context.Context, ev bridge.ShortcutEvent) (bridge.Outcome, error)
}

// Handler receives Slack Events API and interactivity requests. Requests are
// acknowledged at once; processing continues on the dispatcher.
type Handler struct {
	engine     ChatEventHandler
	dispatcher *common.Dispatcher
	logger     logger.Interface
}

func NewHandler(engine ChatEventHandler, dispatcher *common.Dispatcher, logger logger.Interface) *Handler {
	return &Handler{
		engine:     engine,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleEvents handles Events API callbacks
// POST /slack/events
func (h *Handler) HandleEvents(c *gin.Context) {
	body, err := middleware.RawBody(c)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("unreadable request body"))
		return
	}

	var env slackInfra.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.logger.Warnw("invalid slack event payload", "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("invalid event payload"))
		return
	}

	switch env.Type {
	case slackInfra.EnvelopeURLVerification:
		c.JSON(http.StatusOK, gin.H{"challenge": env.Challenge})
		return
	case slackInfra.EnvelopeEventCallback:
		h.dispatchEvent(c, &env)
	default:
		h.logger.Debugw("ignoring slack envelope", "type", env.Type)
	}

	c.Status(http.StatusOK)
}

func (h *Handler) dispatchEvent(c *gin.Context, env *slackInfra.Envelope) {
	if inner := env.InnerEventType(); inner != "message" {
		h.logger.Debugw("ignoring slack event", "event_type", inner, "event_id", env.EventID)
		return
	}

	msg, err := slackInfra.ParseMessageEvent(env)
	if err != nil {
		h.logger.Warnw("invalid slack message event", "event_id", env.EventID, "error", err)
		return
	}

	ev := msg.ChatEvent(env.EventID)
	log := h.logger.With("request_id", c.GetString(middleware.RequestIDKey), "event_id", env.EventID)
	h.dispatcher.Dispatch("slack.message", func(ctx context.Context) {
		outcome, err := h.engine.HandleChatMessage(ctx, ev)
		logOutcome(log, "slack message processed", outcome, err)
	})
}

// HandleInteractivity handles message shortcuts
// POST /slack/interactivity
func (h *Handler) HandleInteractivity(c *gin.Context) {
	raw := c.PostForm("payload")
	if raw == "" {
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("missing payload"))
		return
	}

	payload, err := slackInfra.ParseInteractionPayload(raw)
	if err != nil {
		h.logger.Warnw("invalid slack interaction payload", "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("invalid payload"))
		return
	}

	ev, ok := payload.ShortcutEvent()
	if !ok {
		h.logger.Debugw("ignoring slack interaction", "type", payload.Type, "callback_id", payload.CallbackID)
		c.Status(http.StatusOK)
		return
	}

	log := h.logger.With("request_id", c.GetString(middleware.RequestIDKey), "callback_id", ev.CallbackID, "user_id", ev.UserID)
	h.dispatcher.Dispatch("slack.shortcut", func(ctx context.Context) {
		outcome, err := h.engine.HandleShortcut(ctx, ev)
		logOutcome(log, "slack shortcut processed", outcome, err)
	})

	c.Status(http.StatusOK)
}

// logOutcome records the result; failures were already logged by the engine.
func logOutcome(log logger.Interface, msg string, outcome bridge.Outcome, err error) {
	if err != nil {
		log.Debugw(msg, "outcome", outcome.String(), "error", err)
		return
	}
	log.Debugw(msg, "outcome", outcome.String())
}
