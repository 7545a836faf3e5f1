package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openfulfil/go-courier-sync/internal/webhook"
)

// WebhookConfig groups dependencies for the carrier push endpoint.
type WebhookConfig struct {
	Ingestor *webhook.Ingestor
	Logger   *zap.Logger
}

// RegisterWebhookRoutes registers the carrier status push endpoint.
//
// The carrier retries non-2xx responses, so only signature failures are
// rejected; malformed or unknown-waybill payloads are acknowledged and
// logged, since retrying them will never help.
func RegisterWebhookRoutes(r *gin.Engine, cfg WebhookConfig) {
	ing := cfg.Ingestor
	logger := cfg.Logger

	r.POST("/webhooks/carrier", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
			return
		}

		sig := c.GetHeader("X-Webhook-Signature")

		res, err := ing.Ingest(c.Request.Context(), body, sig)
		switch {
		case errors.Is(err, webhook.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_signature"})
			return
		case errors.Is(err, webhook.ErrUnparsablePayload):
			if logger != nil {
				logger.Warn("unparsable webhook payload", zap.Int("bytes", len(body)))
			}
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		case err != nil:
			// Transient store or queue failure; a carrier retry may succeed.
			if logger != nil {
				logger.Error("webhook apply failed", zap.Error(err))
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "apply_failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": string(res.Outcome),
			"awb":    res.AWB,
			"state":  string(res.State),
		})
	})
}
