package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"pix-payment-svc/gateway"
	"pix-payment-svc/middleware"
	"pix-payment-svc/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ChargeHandler creates a PIX charge through one gateway adapter and
// records the resulting order. One instance is registered per provider
// route; the binding is fixed at startup, not chosen per request.
type ChargeHandler struct {
	db     *sql.DB
	gw     gateway.Gateway
	logger *zap.Logger
	// requirePayer is set for gateways whose charge call carries a payer
	// block (TriboPay, SyncPayments).
	requirePayer bool
}

func NewChargeHandler(db *sql.DB, gw gateway.Gateway, requirePayer bool, logger *zap.Logger) *ChargeHandler {
	return &ChargeHandler{
		db:           db,
		gw:           gw,
		logger:       logger,
		requirePayer: requirePayer,
	}
}

func (h *ChargeHandler) CreateCharge(c *gin.Context) {
	ctx, span := otel.Tracer("pix-payment-service").Start(c.Request.Context(), "CreateCharge")
	defer span.End()

	provider := h.gw.Name()
	span.SetAttributes(attribute.String("provider", provider))

	var req models.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The page occasionally omits the type; the original treated that as a
	// subscription purchase.
	productType := req.Type
	if productType == "" {
		productType = models.ProductSubscription
	}

	// The amount always comes from the price table, never from the client.
	amountCents, ok := models.ProductPrices[productType]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product type"})
		return
	}

	document := gateway.NormalizeCPF(req.Document)
	if len(document) != 11 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document must contain 11 digits"})
		return
	}

	if h.requirePayer && (req.Name == "" || req.Email == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and email are required"})
		return
	}

	span.SetAttributes(
		attribute.String("product", string(productType)),
		attribute.Int64("amount_cents", amountCents),
	)

	charge := gateway.Charge{
		AmountCents: amountCents,
		Product:     productType,
		Name:        req.Name,
		Email:       req.Email,
		Document:    document,
		Phone:       gateway.NormalizeCPF(req.Phone),
	}

	payload, err := h.gw.CreateCharge(ctx, charge)
	if err != nil {
		span.RecordError(err)
		traceID := middleware.GetTraceID(ctx)
		middleware.RecordChargeCreated(provider, "gateway_error")

		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) {
			h.logger.Error("Gateway rejected charge",
				zap.String("trace_id", traceID),
				zap.String("provider", provider),
				zap.Int("provider_status", gwErr.StatusCode),
				zap.ByteString("provider_response", gwErr.Body),
			)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "Unable to generate the PIX payment. Please try again in a few minutes.",
				"provider_status":   gwErr.StatusCode,
				"provider_response": providerResponse(gwErr.Body),
			})
			return
		}

		if errors.Is(err, gateway.ErrNotConfigured) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PushinPay token not configured in the admin panel"})
			return
		}

		h.logger.Error("Failed to create charge",
			zap.String("trace_id", traceID),
			zap.String("provider", provider),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to generate the PIX payment. Please try again in a few minutes."})
		return
	}

	span.SetAttributes(attribute.String("external_id", payload.ExternalID))

	resp := models.ChargeResponse{
		Code:        payload.Code,
		ImageBase64: payload.ImageBase64,
		ExternalID:  payload.ExternalID,
	}

	// The charge already exists at the gateway; a failed insert must not
	// block the user-facing flow. The payment then has no local record
	// until reconciled manually.
	var orderID int
	err = h.db.QueryRowContext(
		ctx,
		"INSERT INTO orders (external_id, type, amount_cents, status) VALUES ($1, $2, $3, $4) RETURNING id",
		payload.ExternalID,
		productType,
		amountCents,
		models.OrderStatusPending,
	).Scan(&orderID)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to persist order",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.String("provider", provider),
			zap.String("external_id", payload.ExternalID),
			zap.Error(err),
		)
		middleware.RecordChargeCreated(provider, "persistence_error")
		c.JSON(http.StatusOK, resp)
		return
	}

	span.SetAttributes(attribute.Int("order.id", orderID))
	resp.OrderID = &orderID

	middleware.RecordChargeCreated(provider, "success")
	h.logger.Info("Charge created",
		zap.String("trace_id", middleware.GetTraceID(ctx)),
		zap.String("provider", provider),
		zap.Int("order_id", orderID),
		zap.String("external_id", payload.ExternalID),
		zap.Int64("amount_cents", amountCents),
	)

	c.JSON(http.StatusOK, resp)
}

// providerResponse keeps the provider body readable in the error response:
// raw when it is valid JSON, a string otherwise.
func providerResponse(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
