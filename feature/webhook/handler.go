package webhook

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/TheNetworkGuy/netbox-zabbix-sync/core/logger"
)

// Handler exposes the NetBox webhook endpoint.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes registers the webhook route.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/webhook", h.HandleWebhook)
}

// HandleWebhook reconciles the entity named in a NetBox change notification.
// @Summary NetBox webhook
// @Description Receive a NetBox object change notification and reconcile the affected host.
// @Tags webhook
// @Accept json
// @Produce json
// @Param payload body webhook.Payload true "NetBox webhook payload"
// @Success 200 {object} sync.EntityResult "Reconciliation result"
// @Success 202 {object} map[string]string "Event ignored"
// @Failure 400 {object} map[string]string "Invalid payload"
// @Failure 500 {object} map[string]string "Reconciliation failed"
// @Router /webhook [post]
func (h *Handler) HandleWebhook(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var payload Payload
	if err := c.BodyParser(&payload); err != nil {
		l.Warn("invalid webhook payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid payload",
		})
	}
	if payload.Data.ID == 0 && payload.Event != "deleted" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "payload has no object id",
		})
	}

	result, handled, err := h.service.Handle(c.Context(), payload)
	if err != nil {
		l.Error("webhook sync failed",
			zap.String("model", payload.Model),
			zap.Int64("id", payload.Data.ID),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if !handled {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "ignored",
		})
	}
	return c.JSON(result)
}
