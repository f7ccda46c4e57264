package handlers

import (
	"database/sql"
	"errors"
	"io"
	"net/http"

	"pix-payment-svc/gateway"
	"pix-payment-svc/middleware"
	"pix-payment-svc/models"
	"pix-payment-svc/notify"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// WebhookHandler ingests one provider's status callbacks. Everything except
// a malformed body is answered 200 so the gateway's at-least-once delivery
// never turns into a retry storm: missing identifiers and unknown orders
// are absorbed as no-ops.
type WebhookHandler struct {
	db     *sql.DB
	gw     gateway.Gateway
	broker notify.Broker
	logger *zap.Logger
}

func NewWebhookHandler(db *sql.DB, gw gateway.Gateway, broker notify.Broker, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		db:     db,
		gw:     gw,
		broker: broker,
		logger: logger,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("pix-payment-service").Start(c.Request.Context(), "IngestWebhook")
	defer span.End()

	provider := h.gw.Name()
	span.SetAttributes(attribute.String("provider", provider))
	traceID := middleware.GetTraceID(ctx)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to read webhook body",
			zap.String("trace_id", traceID),
			zap.String("provider", provider),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	event, err := h.gw.ParseWebhook(body)
	if err != nil {
		if errors.Is(err, gateway.ErrNoIdentifier) {
			// Test pings and the like; accept and discard.
			h.logger.Warn("Webhook without identifier, ignoring",
				zap.String("trace_id", traceID),
				zap.String("provider", provider),
			)
			middleware.RecordWebhookProcessed(provider, "no_identifier")
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}

		span.RecordError(err)
		h.logger.Error("Malformed webhook body",
			zap.String("trace_id", traceID),
			zap.String("provider", provider),
			zap.Error(err),
		)
		middleware.RecordWebhookProcessed(provider, "malformed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	span.SetAttributes(
		attribute.String("external_id", event.ExternalID),
		attribute.String("status", string(event.Status)),
	)

	// Unconditional update by external id, last write wins. The amount is
	// overwritten only when the event carries one.
	var (
		orderID     int
		orderType   models.ProductType
		amountCents int64
	)
	if event.AmountCents != nil {
		err = h.db.QueryRowContext(ctx,
			"UPDATE orders SET status = $1, amount_cents = $2, updated_at = NOW() WHERE external_id = $3 RETURNING id, type, amount_cents",
			event.Status, *event.AmountCents, event.ExternalID,
		).Scan(&orderID, &orderType, &amountCents)
	} else {
		err = h.db.QueryRowContext(ctx,
			"UPDATE orders SET status = $1, updated_at = NOW() WHERE external_id = $2 RETURNING id, type, amount_cents",
			event.Status, event.ExternalID,
		).Scan(&orderID, &orderType, &amountCents)
	}

	if err == sql.ErrNoRows {
		// Out-of-order or duplicate delivery for an id we never recorded.
		h.logger.Warn("Webhook for unknown order, ignoring",
			zap.String("trace_id", traceID),
			zap.String("provider", provider),
			zap.String("external_id", event.ExternalID),
		)
		middleware.RecordWebhookProcessed(provider, "unknown_order")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to update order",
			zap.String("trace_id", traceID),
			zap.String("provider", provider),
			zap.String("external_id", event.ExternalID),
			zap.Error(err),
		)
		middleware.RecordWebhookProcessed(provider, "error")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	span.SetAttributes(attribute.Int("order.id", orderID))

	statusEvent := models.StatusEvent{
		OrderID:     orderID,
		Type:        orderType,
		Status:      event.Status,
		AmountCents: amountCents,
	}
	if err := h.broker.Publish(ctx, statusEvent); err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to publish status event",
			zap.String("trace_id", traceID),
			zap.Int("order_id", orderID),
			zap.Error(err),
		)
	}

	middleware.RecordWebhookProcessed(provider, string(event.Status))
	h.logger.Info("Webhook processed",
		zap.String("trace_id", traceID),
		zap.String("provider", provider),
		zap.Int("order_id", orderID),
		zap.String("external_id", event.ExternalID),
		zap.String("status", string(event.Status)),
	)

	c.JSON(http.StatusOK, gin.H{"received": true})
}
