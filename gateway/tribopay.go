package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pix-payment-svc/config"
	"pix-payment-svc/models"

	"go.uber.org/zap"
)

// TriboPay authenticates with a static bearer API key and works in cents.
// It assigns no identifier of its own, so the adapter synthesizes one and
// the gateway echoes it back in the webhook as externalId.
type TriboPay struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client
	now        func() time.Time
}

func NewTriboPay(cfg *config.Config, logger *zap.Logger) *TriboPay {
	return &TriboPay{
		cfg:        cfg,
		logger:     logger,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

func (t *TriboPay) Name() string { return "tribopay" }

type triboPayPixResponse struct {
	Pix struct {
		Code        string `json:"code"`
		ImageBase64 string `json:"imageBase64"`
	} `json:"pix"`
}

func (t *TriboPay) CreateCharge(ctx context.Context, charge Charge) (*PixPayload, error) {
	externalID := fmt.Sprintf("order_%d", t.now().UnixMilli())

	reqBody := map[string]any{
		"amount":            charge.AmountCents,
		"externalId":        externalID,
		"postbackUrl":       t.cfg.WebhookURL(t.Name()),
		"method":            "pix",
		"transactionOrigin": "cashin",
		"payer": map[string]string{
			"name":     charge.Name,
			"email":    charge.Email,
			"document": charge.Document,
		},
	}

	headers := map[string]string{
		"Authorization": "Bearer " + t.cfg.TriboPayAPIKey,
	}

	status, body, err := postJSON(ctx, t.httpClient, t.cfg.TriboPayBaseURL+"/api/public/cash/deposits/pix", headers, reqBody)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &GatewayError{Provider: t.Name(), StatusCode: status, Body: body}
	}

	var parsed triboPayPixResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tribopay response: %w", err)
	}

	return &PixPayload{
		Code:        parsed.Pix.Code,
		ImageBase64: parsed.Pix.ImageBase64,
		ExternalID:  externalID,
	}, nil
}

// ParseWebhook expects {externalId, status, amount} with amount in cents.
func (t *TriboPay) ParseWebhook(body []byte) (*WebhookEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tribopay webhook: %w", err)
	}

	externalID := stringField(payload, "externalId")
	if externalID == "" {
		return nil, ErrNoIdentifier
	}

	event := &WebhookEvent{
		ExternalID: externalID,
		Status:     triboPayStatus(stringField(payload, "status")),
	}

	if amount, ok := payload["amount"].(float64); ok {
		cents := int64(amount)
		event.AmountCents = &cents
	}

	return event, nil
}

func triboPayStatus(raw string) models.OrderStatus {
	switch raw {
	case "paid":
		return models.OrderStatusPaid
	case "failed":
		return models.OrderStatusFailed
	default:
		return models.OrderStatusPending
	}
}
