package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pix-payment-svc/models"
)

// Charge is the canonical charge request handed to an adapter. Document is
// the already-normalized 11-digit CPF.
type Charge struct {
	AmountCents int64
	Product     models.ProductType
	Name        string
	Email       string
	Document    string
	Phone       string
}

// PixPayload is the canonical result of a created charge: the copy-paste
// code, an optional QR image, and the external id the provider's webhook
// will be correlated by.
type PixPayload struct {
	Code        string
	ImageBase64 string
	ExternalID  string
}

// WebhookEvent is a provider webhook normalized to the canonical vocabulary.
// AmountCents is nil when the event carries no amount.
type WebhookEvent struct {
	ExternalID  string
	Status      models.OrderStatus
	AmountCents *int64
}

// ErrNoIdentifier marks a webhook that carries no correlatable identifier
// (test pings and the like). Callers accept and discard these.
var ErrNoIdentifier = errors.New("webhook payload has no identifier")

// Gateway is the contract every payment provider adapter implements.
type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, charge Charge) (*PixPayload, error)
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// GatewayError carries the provider's HTTP status and raw response body for
// server-side diagnostics. No retry is ever attempted.
type GatewayError struct {
	Provider   string
	StatusCode int
	Body       []byte
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NormalizeCPF strips non-digit characters. The result is valid only when
// it is exactly 11 digits; no checksum is applied.
func NormalizeCPF(document string) string {
	var b strings.Builder
	for _, r := range document {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// postJSON performs a single JSON POST and returns the response status and
// body. Transport failures surface as errors; non-2xx statuses are the
// caller's to interpret.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload any) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// stringField returns the first non-empty value among keys, stringified the
// way the providers mix string and numeric ids.
func stringField(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
