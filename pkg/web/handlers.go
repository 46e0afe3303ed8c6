package web

import (
	"errors"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/messaging/whatsapp"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// WebhookHandlers serve the per-channel WhatsApp webhook.
type WebhookHandlers struct {
	logger     *slog.Logger
	channels   persistence.ChannelRepository
	dispatcher InboundDispatcher
	validate   *validator.Validate
}

func NewWebhookHandlers(
	logger *slog.Logger,
	channels persistence.ChannelRepository,
	dispatcher InboundDispatcher,
	validate *validator.Validate,
) *WebhookHandlers {
	return &WebhookHandlers{
		logger:     logger.With("module", "webhook"),
		channels:   channels,
		dispatcher: dispatcher,
		validate:   validate,
	}
}

// Verify answers the subscription handshake by echoing hub.challenge when
// the token matches the channel's verify token.
func (h *WebhookHandlers) Verify(c fiber.Ctx) error {
	channelID := c.Params("channelId")

	channel, err := h.channels.ChannelByID(c.Context(), channelID)
	if err != nil {
		if persistence.IsChannelNotFound(err) {
			return notFound(c, "channel_not_found", "channel not found")
		}

		return internalError(c, err)
	}

	req := VerifyRequest{
		Mode:      c.Query("hub.mode"),
		Token:     c.Query("hub.verify_token"),
		Challenge: c.Query("hub.challenge"),
	}

	if err := h.validate.Struct(req); err != nil || channel.VerifyToken == "" || req.Token != channel.VerifyToken {
		h.logger.WarnContext(c.Context(), "Webhook verification rejected", "channel_id", channelID)

		return forbidden(c, "verification failed")
	}

	h.logger.InfoContext(c.Context(), "Webhook verified", "channel_id", channelID)

	return c.Status(fiber.StatusOK).SendString(req.Challenge)
}

// Receive acknowledges every well-formed delivery with 200 so the platform
// does not redeliver messages the engine chose to ignore.
func (h *WebhookHandlers) Receive(c fiber.Ctx) error {
	ctx := c.Context()
	channelID := c.Params("channelId")
	logger := h.logger.With("channel_id", channelID)

	message, err := whatsapp.ParseWebhook(c.Body(), channelID)
	if err != nil {
		logger.WarnContext(ctx, "Rejected webhook delivery", "error", err)

		return badRequest(c, err.Error())
	}

	if message == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	logger = logger.With("message_id", message.MessageID)

	channel, err := h.channels.ChannelByID(ctx, channelID)
	if err != nil {
		if persistence.IsChannelNotFound(err) {
			logger.WarnContext(ctx, "Delivery for unknown channel ignored")

			return c.SendStatus(fiber.StatusOK)
		}

		logger.ErrorContext(ctx, "Failed to load channel", "error", err)

		return internalError(c, err)
	}

	if !channel.IsActive {
		logger.InfoContext(ctx, "Delivery for inactive channel ignored")

		return c.SendStatus(fiber.StatusOK)
	}

	if err := h.validate.Struct(message); err != nil {
		logger.WarnContext(ctx, "Inbound message failed validation", "error", err)

		return c.SendStatus(fiber.StatusOK)
	}

	if err := h.dispatcher.Dispatch(ctx, *message); err != nil {
		logger.ErrorContext(ctx, "Failed to dispatch inbound message", "error", err)

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusOK)
}

// FlowHandlers expose flow listing, validation and publishing.
type FlowHandlers struct {
	flows      persistence.FlowRepository
	publishing *services.Publishing
}

func NewFlowHandlers(flows persistence.FlowRepository, publishing *services.Publishing) *FlowHandlers {
	return &FlowHandlers{flows: flows, publishing: publishing}
}

func (h *FlowHandlers) ListFlows(c fiber.Ctx) error {
	flows, err := h.flows.Flows(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	channelID := c.Query("channel_id")
	summaries := make([]FlowSummary, 0, len(flows))

	for _, flow := range flows {
		if channelID != "" && flow.ChannelID != channelID {
			continue
		}

		summaries = append(summaries, TransformFlowSummary(flow))
	}

	return c.JSON(fiber.Map{
		"flows":       summaries,
		"total_count": len(summaries),
	})
}

func (h *FlowHandlers) GetFlow(c fiber.Ctx) error {
	flow, err := h.flows.FlowByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *FlowHandlers) ValidateFlow(c fiber.Ctx) error {
	flow, err := h.flows.FlowByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := h.publishing.Validate(flow); err != nil {
		if !services.IsValidationError(err) {
			return handleServiceError(c, err)
		}

		return c.JSON(ValidationResponse{Valid: false, Problems: problemMessages(err)})
	}

	return c.JSON(ValidationResponse{Valid: true})
}

func (h *FlowHandlers) PublishFlow(c fiber.Ctx) error {
	flow, err := h.publishing.Publish(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformFlowSummary(flow))
}

func (h *FlowHandlers) UnpublishFlow(c fiber.Ctx) error {
	flow, err := h.publishing.Unpublish(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformFlowSummary(flow))
}

func problemMessages(err error) []string {
	var validationErr *services.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErr.Problems))
	for _, problem := range validationErr.Problems {
		messages = append(messages, problem.Error())
	}

	return messages
}
