package handlers

import (
	"database/sql"
	"io"
	"net/http"
	"strconv"

	"pix-payment-svc/middleware"
	"pix-payment-svc/models"
	"pix-payment-svc/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StreamHandler serves the per-order status subscription the client opens
// right after charge creation. It emits the current row status once, then
// relays broker events until the client disconnects. No replay, no ack; a
// missed update survives only in the orders table.
type StreamHandler struct {
	db     *sql.DB
	broker notify.Broker
	logger *zap.Logger
}

func NewStreamHandler(db *sql.DB, broker notify.Broker, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{db: db, broker: broker, logger: logger}
}

func (h *StreamHandler) StreamStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var current models.StatusEvent
	err = h.db.QueryRowContext(
		c.Request.Context(),
		"SELECT id, type, status, amount_cents FROM orders WHERE id = $1",
		id,
	).Scan(&current.OrderID, &current.Type, &current.Status, &current.AmountCents)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		traceID := middleware.GetTraceID(c.Request.Context())
		h.logger.Error("Failed to load order for stream", zap.String("trace_id", traceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Subscribe before sending the snapshot so an update racing with the
	// subscription is not lost.
	events, cancel := h.broker.Subscribe(c.Request.Context(), id)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	sentSnapshot := false
	c.Stream(func(w io.Writer) bool {
		if !sentSnapshot {
			sentSnapshot = true
			c.SSEvent("status", current)
			return true
		}
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("status", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
