package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/antiekhuis/antiekhuis-api/internal/payment"
	"github.com/antiekhuis/antiekhuis-api/internal/worker"
)

// maxWebhookBody bounds the payload Stripe is allowed to send.
const maxWebhookBody = 1 << 16

// WebhookHandler verifies incoming payment events and hands them to the
// queue. Order creation happens in the worker, never in the request
// path.
type WebhookHandler struct {
	channel       *amqp.Channel
	webhookSecret string
	log           *slog.Logger
}

func NewWebhookHandler(channel *amqp.Channel, webhookSecret string, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{channel: channel, webhookSecret: webhookSecret, log: log}
}

func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read payload"})
		return
	}

	msg, err := payment.ParsePaymentEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.log.Warn("rejected webhook", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}
	if msg == nil {
		// Event type we do not handle; acknowledge so Stripe stops retrying.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := worker.PublishPaymentMessage(c.Request.Context(), h.channel, msg); err != nil {
		h.log.Error("enqueue payment event", "event_id", msg.EventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "queued"})
}
