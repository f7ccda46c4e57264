package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"pix-payment-svc/config"
	"pix-payment-svc/models"

	"go.uber.org/zap"
)

// SyncPay (SyncPayments) requires a client-id/secret token exchange before
// every charge and is the one gateway that speaks in reais, not cents. The
// token is fetched fresh each time; volume is low enough that caching is
// not worth carrying.
type SyncPay struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client
	now        func() time.Time
}

func NewSyncPay(cfg *config.Config, logger *zap.Logger) *SyncPay {
	return &SyncPay{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

func (s *SyncPay) Name() string { return "syncpay" }

func (s *SyncPay) authToken(ctx context.Context) (string, error) {
	reqBody := map[string]string{
		"client_id":     s.cfg.SyncClientID,
		"client_secret": s.cfg.SyncClientSecret,
	}

	status, body, err := postJSON(ctx, s.httpClient, s.cfg.SyncBaseURL+"/api/partner/v1/auth-token", nil, reqBody)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &GatewayError{Provider: s.Name(), StatusCode: status, Body: body}
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode syncpay auth response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", &GatewayError{Provider: s.Name(), StatusCode: status, Body: body}
	}

	return parsed.AccessToken, nil
}

type syncPayCashInResponse struct {
	Identifier string `json:"identifier"`
	PixCode    string `json:"pix_code"`
	Message    string `json:"message"`
}

func (s *SyncPay) CreateCharge(ctx context.Context, charge Charge) (*PixPayload, error) {
	token, err := s.authToken(ctx)
	if err != nil {
		return nil, err
	}

	description := "Pagamento"
	if charge.Product == models.ProductSubscription {
		description = "Assinatura"
	}

	reqBody := map[string]any{
		// SyncPay expects reais.
		"amount":      float64(charge.AmountCents) / 100,
		"description": description,
		"webhook_url": s.cfg.WebhookURL(s.Name()),
		"client": map[string]string{
			"name":  charge.Name,
			"cpf":   charge.Document,
			"email": charge.Email,
			"phone": charge.Phone,
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json",
	}

	status, body, err := postJSON(ctx, s.httpClient, s.cfg.SyncBaseURL+"/api/partner/v1/cash-in", headers, reqBody)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &GatewayError{Provider: s.Name(), StatusCode: status, Body: body}
	}

	var parsed syncPayCashInResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode syncpay response: %w", err)
	}

	externalID := parsed.Identifier
	if externalID == "" {
		externalID = fmt.Sprintf("syncpay_%d", s.now().UnixMilli())
	}

	return &PixPayload{
		Code:       parsed.PixCode,
		ExternalID: externalID,
	}, nil
}

// ParseWebhook expects {identifier, status, amount} with amount in reais,
// converted back to cents for storage.
func (s *SyncPay) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal syncpay webhook: %w", err)
	}

	externalID := stringField(payload, "identifier")
	if externalID == "" {
		return nil, ErrNoIdentifier
	}

	event := &WebhookEvent{
		ExternalID: externalID,
		Status:     syncPayStatus(stringField(payload, "status")),
	}

	if amount, ok := payload["amount"].(float64); ok {
		cents := int64(math.Round(amount * 100))
		event.AmountCents = &cents
	}

	return event, nil
}

func syncPayStatus(raw string) models.OrderStatus {
	switch raw {
	case "paid", "approved", "completed":
		return models.OrderStatusPaid
	case "failed", "expired", "cancelled":
		return models.OrderStatusFailed
	default:
		return models.OrderStatusPending
	}
}
