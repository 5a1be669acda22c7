package api

import (
	"errors"
	"io"
	"net/http"

	"storefront-orders/internal/payments"
	"storefront-orders/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// receivePaymentWebhook hands the unparsed body to the receiver
func (h *Handler) receivePaymentWebhook(c *gin.Context) {
	if err := h.webhooks.Ready(); err != nil {
		status, msg := webhookError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	ack, err := h.webhooks.Receive(c.Request.Context(), body, c.GetHeader(payments.SignatureHeader))
	if err != nil {
		status, msg := webhookError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, ack)
}

func webhookError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrWebhookSecretNotConfigured):
		return http.StatusInternalServerError, "Webhook secret is not configured"
	case errors.Is(err, payments.ErrMissingSignature):
		return http.StatusBadRequest, "Missing signature"
	case errors.Is(err, payments.ErrSignatureMismatch):
		return http.StatusBadRequest, "Invalid signature"
	case errors.Is(err, payments.ErrMalformedEvent):
		return http.StatusBadRequest, "Malformed event"
	case errors.Is(err, service.ErrReconcileFailed):
		return http.StatusInternalServerError, "Event processing failed"
	default:
		return http.StatusInternalServerError, "Webhook handling failed"
	}
}
