package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"pix-payment-svc/middleware"
	"pix-payment-svc/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler manages the PushinPay credential table. Credentials are
// append-only: a new row supersedes the old one, nothing is mutated or
// deleted.
type AdminHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAdminHandler(db *sql.DB, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, logger: logger}
}

func (h *AdminHandler) GetPushinPayConfig(c *gin.Context) {
	var (
		environment string
		createdAt   time.Time
	)
	err := h.db.QueryRowContext(c.Request.Context(),
		"SELECT environment, created_at FROM pushinpay_config ORDER BY created_at DESC, id DESC LIMIT 1",
	).Scan(&environment, &createdAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusOK, gin.H{
			"configured":  false,
			"environment": nil,
			"created_at":  nil,
		})
		return
	}
	if err != nil {
		traceID := middleware.GetTraceID(c.Request.Context())
		h.logger.Error("Failed to load PushinPay config", zap.String("trace_id", traceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configured":  true,
		"environment": environment,
		"created_at":  createdAt,
	})
}

func (h *AdminHandler) SavePushinPayConfig(c *gin.Context) {
	var req models.PushinPayConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	environment := "sandbox"
	if req.Environment == "production" {
		environment = "production"
	}

	_, err := h.db.ExecContext(c.Request.Context(),
		"INSERT INTO pushinpay_config (token, environment) VALUES ($1, $2)",
		req.Token, environment,
	)
	if err != nil {
		traceID := middleware.GetTraceID(c.Request.Context())
		h.logger.Error("Failed to save PushinPay config", zap.String("trace_id", traceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save configuration"})
		return
	}

	h.logger.Info("PushinPay configuration updated", zap.String("environment", environment))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
