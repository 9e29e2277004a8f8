package zendesk

import (
	"context"
	goerrors "errors"

	"github.com/gin-gonic/gin"

	"deskbridge/internal/application/bridge"
	zendeskInfra "deskbridge/internal/infrastructure/zendesk"
	"deskbridge/internal/interfaces/http/handlers/common"
	"deskbridge/internal/interfaces/http/middleware"
	"deskbridge/internal/shared/biztime"
	"deskbridge/internal/shared/errors"
	"deskbridge/internal/shared/logger"
	"deskbridge/internal/shared/services/markdown"
	"deskbridge/internal/shared/utils"
)

// TicketEventHandler processes ticket-side events.
type TicketEventHandler interface {
	HandleTicketEvent(ctx context.Context, ev bridge.TicketEvent) (bridge.Outcome, error)
}

type Handler struct {
	engine     TicketEventHandler
	dispatcher *common.Dispatcher
	markdown   markdown.MarkdownService
	clock      biztime.Clock
	logger     logger.Interface
}

func NewHandler(engine TicketEventHandler, dispatcher *common.Dispatcher, md markdown.MarkdownService, clock biztime.Clock, logger logger.Interface) *Handler {
	if clock == nil {
		clock = biztime.System()
	}
	return &Handler{
		engine:     engine,
		dispatcher: dispatcher,
		markdown:   md,
		clock:      clock,
		logger:     logger,
	}
}

// HandleWebhook handles ticket comment webhooks
// POST /zendesk/webhook
func (h *Handler) HandleWebhook(c *gin.Context) {
	body, err := middleware.RawBody(c)
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("unreadable request body"))
		return
	}

	payload, err := zendeskInfra.ParseWebhook(body)
	if err != nil {
		h.logger.Warnw("invalid zendesk webhook payload", "error", err)
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("invalid webhook payload"))
		return
	}

	ev, err := payload.TicketEvent(h.markdown, h.clock.Now())
	if goerrors.Is(err, zendeskInfra.ErrMissingTicketID) {
		h.logger.Warnw("zendesk webhook without ticket id")
		utils.ErrorResponseWithError(c, errors.NewValidationError("no ticket id"))
		return
	}
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewBadRequestError("invalid webhook payload"))
		return
	}

	log := h.logger.With("request_id", c.GetString(middleware.RequestIDKey), "ticket_id", ev.TicketID)
	h.dispatcher.Dispatch("zendesk.comment", func(ctx context.Context) {
		outcome, err := h.engine.HandleTicketEvent(ctx, ev)
		if err != nil {
			log.Debugw("zendesk webhook processed", "outcome", outcome.String(), "error", err)
			return
		}
		log.Debugw("zendesk webhook processed", "outcome", outcome.String())
	})

	utils.AcceptedResponse(c)
}
