package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pix-payment-svc/config"
	"pix-payment-svc/models"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no PushinPay credential row exists yet.
var ErrNotConfigured = errors.New("pushinpay token not configured")

// CredentialSource yields the current PushinPay token and environment. The
// token is runtime-configurable through the admin endpoint; the most
// recently inserted row wins.
type CredentialSource interface {
	LatestCredential(ctx context.Context) (token, environment string, err error)
}

// PushinPay works in cents and assigns its own transaction id, surfaced
// under one of several field names.
type PushinPay struct {
	cfg         *config.Config
	credentials CredentialSource
	logger      *zap.Logger
	httpClient  *http.Client
	now         func() time.Time
}

func NewPushinPay(cfg *config.Config, credentials CredentialSource, logger *zap.Logger) *PushinPay {
	return &PushinPay{
		cfg:         cfg,
		credentials: credentials,
		logger:      logger,
		httpClient:  &http.Client{},
		now:         time.Now,
	}
}

func (p *PushinPay) Name() string { return "pushinpay" }

func (p *PushinPay) CreateCharge(ctx context.Context, charge Charge) (*PixPayload, error) {
	token, environment, err := p.credentials.LatestCredential(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pushinpay credential: %w", err)
	}

	baseURL := p.cfg.PushinPaySandboxURL
	if environment == "production" {
		baseURL = p.cfg.PushinPayProductionURL
	}

	reqBody := map[string]any{
		"value":       charge.AmountCents,
		"webhook_url": p.cfg.WebhookURL(p.Name()),
		"split_rules": []any{},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json",
	}

	status, body, err := postJSON(ctx, p.httpClient, baseURL+"/pix/cashIn", headers, reqBody)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &GatewayError{Provider: p.Name(), StatusCode: status, Body: body}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode pushinpay response: %w", err)
	}

	externalID := stringField(payload, "id", "transaction_id", "reference", "uuid")
	if externalID == "" {
		externalID = fmt.Sprintf("pushinpay_%d", p.now().UnixMilli())
	}

	return &PixPayload{
		Code:        stringField(payload, "qr_code"),
		ImageBase64: stringField(payload, "qr_code_base64"),
		ExternalID:  externalID,
	}, nil
}

// ParseWebhook probes id, transaction_id, reference and uuid in that order
// for the identifier; the status arrives as status or payment_status, the
// amount (in cents) as value or amount_cents.
func (p *PushinPay) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pushinpay webhook: %w", err)
	}

	externalID := stringField(payload, "id", "transaction_id", "reference", "uuid")
	if externalID == "" {
		return nil, ErrNoIdentifier
	}

	event := &WebhookEvent{
		ExternalID: externalID,
		Status:     pushinPayStatus(stringField(payload, "status", "payment_status")),
	}

	if amount, ok := payload["value"].(float64); ok {
		cents := int64(amount)
		event.AmountCents = &cents
	} else if amount, ok := payload["amount_cents"].(float64); ok {
		cents := int64(amount)
		event.AmountCents = &cents
	}

	return event, nil
}

func pushinPayStatus(raw string) models.OrderStatus {
	switch strings.ToLower(raw) {
	case "paid", "approved", "success":
		return models.OrderStatusPaid
	case "failed", "canceled", "refused":
		return models.OrderStatusFailed
	default:
		return models.OrderStatusPending
	}
}
