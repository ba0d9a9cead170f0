package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-repair-service/metrics"
	"stock-repair-service/models"
	"stock-repair-service/services"
)

const shopifyHmacHeader = "X-Shopify-Hmac-Sha256"

// WebhookController receives inventory_levels/update webhooks. 401 is
// reserved for signature failure; every verified event is answered 200, even
// when the downstream correction fails, so the sender never retries an event
// we have already decided about. Failures are visible through the outcome
// counter and structured logs instead.
type WebhookController struct {
	verifier *services.SignatureVerifier
	service  *services.WebhookService
	logger   *zap.Logger
}

func NewWebhookController(verifier *services.SignatureVerifier, service *services.WebhookService, logger *zap.Logger) *WebhookController {
	return &WebhookController{verifier: verifier, service: service, logger: logger}
}

// InventoryLevelsUpdate handles POST /webhooks/inventory-levels.
func (wc *WebhookController) InventoryLevelsUpdate(c *gin.Context) {
	// The signature covers the raw, unparsed bytes.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		body = nil
	}

	if _, ok := wc.verifier.Verify(body, c.GetHeader(shopifyHmacHeader)); !ok {
		metrics.WebhookEventsTotal.WithLabelValues("rejected").Inc()
		wc.logger.Warn("webhook rejected: signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "message": "invalid webhook signature"})
		return
	}

	// Tolerant parse: a malformed or empty body is treated as {} and ends up
	// ignored for missing identifiers rather than crashing the handler.
	var event models.InventoryLevelEvent
	if len(body) > 0 {
		_ = json.Unmarshal(body, &event)
	}

	outcome := wc.service.Process(c.Request.Context(), event)
	metrics.WebhookEventsTotal.WithLabelValues(outcome.Status).Inc()

	switch outcome.Status {
	case services.OutcomeIgnored:
		c.JSON(http.StatusOK, gin.H{"ok": true, "ignored": outcome.Message})
	case services.OutcomeDeduped:
		c.JSON(http.StatusOK, gin.H{"ok": true, "deduped": true})
	case services.OutcomeClean:
		c.JSON(http.StatusOK, gin.H{"ok": true, "negative": false, "available": outcome.Available})
	case services.OutcomeFixed:
		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"fixed":     true,
			"negative":  true,
			"available": outcome.Available,
			"target":    outcome.Target,
		})
	default:
		resp := gin.H{"ok": false, "message": outcome.Message}
		if len(outcome.UserErrors) > 0 {
			resp["userErrors"] = outcome.UserErrors
		}
		c.JSON(http.StatusOK, resp)
	}
}
