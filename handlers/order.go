package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"pix-payment-svc/middleware"
	"pix-payment-svc/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler exposes order rows for status re-checks, e.g. after a client
// reconnects and may have missed the live notification.
type OrderHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderHandler(db *sql.DB, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{db: db, logger: logger}
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var order models.Order
	err = h.db.QueryRowContext(
		c.Request.Context(),
		"SELECT id, external_id, type, amount_cents, status, created_at, updated_at FROM orders WHERE id = $1",
		id,
	).Scan(&order.ID, &order.ExternalID, &order.Type, &order.AmountCents, &order.Status, &order.CreatedAt, &order.UpdatedAt)

	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		traceID := middleware.GetTraceID(c.Request.Context())
		h.logger.Error("Failed to get order", zap.String("trace_id", traceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, order)
}
