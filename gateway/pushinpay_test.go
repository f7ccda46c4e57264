package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pix-payment-svc/config"
	"pix-payment-svc/models"

	"go.uber.org/zap/zaptest"
)

type fakeCredentials struct {
	token       string
	environment string
	err         error
}

func (f *fakeCredentials) LatestCredential(ctx context.Context) (string, string, error) {
	return f.token, f.environment, f.err
}

func newTestPushinPay(t *testing.T, creds CredentialSource, sandboxURL, productionURL string) *PushinPay {
	cfg := &config.Config{
		PublicBaseURL:          "https://pix.example.com",
		PushinPaySandboxURL:    sandboxURL,
		PushinPayProductionURL: productionURL,
	}
	gw := NewPushinPay(cfg, creds, zaptest.NewLogger(t))
	gw.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return gw
}

func TestPushinPayCreateChargeSandbox(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pix/cashIn" {
			t.Errorf("Unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sandbox-token" {
			t.Errorf("Expected stored token as bearer, got %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"9f3c","qr_code":"pix-code","qr_code_base64":"cXI=","status":"created"}`))
	}))
	defer server.Close()

	gw := newTestPushinPay(t, &fakeCredentials{token: "sandbox-token", environment: "sandbox"}, server.URL, "http://production-must-not-be-called")

	payload, err := gw.CreateCharge(context.Background(), Charge{AmountCents: 15000, Product: models.ProductWhatsApp})
	if err != nil {
		t.Fatalf("CreateCharge failed: %v", err)
	}

	// PushinPay takes cents directly under "value".
	if value := captured["value"].(float64); value != 15000 {
		t.Errorf("Expected value 15000, got %v", value)
	}
	if captured["webhook_url"] != "https://pix.example.com/webhooks/pushinpay" {
		t.Errorf("Unexpected webhook_url %v", captured["webhook_url"])
	}
	if _, ok := captured["split_rules"].([]any); !ok {
		t.Errorf("Expected empty split_rules array, got %v", captured["split_rules"])
	}

	if payload.ExternalID != "9f3c" {
		t.Errorf("Expected external id from response id, got %q", payload.ExternalID)
	}
	if payload.Code != "pix-code" || payload.ImageBase64 != "cXI=" {
		t.Errorf("Unexpected payload: %+v", payload)
	}
}

func TestPushinPayCreateChargeProductionBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transaction_id":"tx-1","qr_code":"code"}`))
	}))
	defer server.Close()

	gw := newTestPushinPay(t, &fakeCredentials{token: "prod-token", environment: "production"}, "http://sandbox-must-not-be-called", server.URL)

	payload, err := gw.CreateCharge(context.Background(), Charge{AmountCents: 2990})
	if err != nil {
		t.Fatalf("CreateCharge failed: %v", err)
	}
	if payload.ExternalID != "tx-1" {
		t.Errorf("Expected transaction_id fallback, got %q", payload.ExternalID)
	}
}

func TestPushinPayCreateChargeSynthesizesExternalID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"qr_code":"code"}`))
	}))
	defer server.Close()

	gw := newTestPushinPay(t, &fakeCredentials{token: "tok", environment: "sandbox"}, server.URL, "")

	payload, err := gw.CreateCharge(context.Background(), Charge{AmountCents: 2990})
	if err != nil {
		t.Fatalf("CreateCharge failed: %v", err)
	}
	if payload.ExternalID != "pushinpay_1700000000000" {
		t.Errorf("Expected surrogate external id, got %q", payload.ExternalID)
	}
}

func TestPushinPayCreateChargeNotConfigured(t *testing.T) {
	gw := newTestPushinPay(t, &fakeCredentials{err: ErrNotConfigured}, "", "")

	_, err := gw.CreateCharge(context.Background(), Charge{AmountCents: 2990})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestPushinPayParseWebhookIdentifierPrecedence(t *testing.T) {
	gw := newTestPushinPay(t, &fakeCredentials{}, "", "")

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"id wins", `{"id":"a","transaction_id":"b","reference":"c","uuid":"d","status":"paid"}`, "a"},
		{"transaction_id next", `{"transaction_id":"b","reference":"c","status":"paid"}`, "b"},
		{"reference next", `{"reference":"c","uuid":"d","status":"paid"}`, "c"},
		{"uuid last", `{"uuid":"d","status":"paid"}`, "d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := gw.ParseWebhook([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseWebhook failed: %v", err)
			}
			if event.ExternalID != tt.expected {
				t.Errorf("Expected external id %q, got %q", tt.expected, event.ExternalID)
			}
		})
	}

	if _, err := gw.ParseWebhook([]byte(`{"status":"paid"}`)); !errors.Is(err, ErrNoIdentifier) {
		t.Errorf("Expected ErrNoIdentifier, got %v", err)
	}
}

func TestPushinPayParseWebhookStatus(t *testing.T) {
	gw := newTestPushinPay(t, &fakeCredentials{}, "", "")

	tests := []struct {
		raw      string
		expected models.OrderStatus
	}{
		{"paid", models.OrderStatusPaid},
		{"approved", models.OrderStatusPaid},
		{"success", models.OrderStatusPaid},
		{"PAID", models.OrderStatusPaid},
		{"failed", models.OrderStatusFailed},
		{"canceled", models.OrderStatusFailed},
		{"refused", models.OrderStatusFailed},
		{"created", models.OrderStatusPending},
		{"", models.OrderStatusPending},
	}

	for _, tt := range tests {
		event, err := gw.ParseWebhook([]byte(`{"id":"x","status":"` + tt.raw + `"}`))
		if err != nil {
			t.Fatalf("ParseWebhook(%q) failed: %v", tt.raw, err)
		}
		if event.Status != tt.expected {
			t.Errorf("Status %q: expected %q, got %q", tt.raw, tt.expected, event.Status)
		}
	}

	// payment_status is probed when status is absent.
	event, err := gw.ParseWebhook([]byte(`{"id":"x","payment_status":"approved"}`))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if event.Status != models.OrderStatusPaid {
		t.Errorf("Expected payment_status fallback to map approved to paid, got %q", event.Status)
	}
}

func TestPushinPayParseWebhookAmount(t *testing.T) {
	gw := newTestPushinPay(t, &fakeCredentials{}, "", "")

	event, err := gw.ParseWebhook([]byte(`{"id":"x","status":"paid","value":2990}`))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if event.AmountCents == nil || *event.AmountCents != 2990 {
		t.Errorf("Expected value taken as cents, got %v", event.AmountCents)
	}

	event, err = gw.ParseWebhook([]byte(`{"id":"x","status":"paid","amount_cents":1500}`))
	if err != nil {
		t.Fatalf("ParseWebhook failed: %v", err)
	}
	if event.AmountCents == nil || *event.AmountCents != 1500 {
		t.Errorf("Expected amount_cents fallback, got %v", event.AmountCents)
	}
}
