package handlers

import (
	"context"
	"sync"

	"pix-payment-svc/gateway"
	"pix-payment-svc/models"
)

// Fake gateway and broker for handler tests; the real adapters and the
// Redis broker have their own tests.

type fakeGateway struct {
	name       string
	createFunc func(ctx context.Context, charge gateway.Charge) (*gateway.PixPayload, error)
	parseFunc  func(body []byte) (*gateway.WebhookEvent, error)

	lastCharge gateway.Charge
}

func (f *fakeGateway) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeGateway) CreateCharge(ctx context.Context, charge gateway.Charge) (*gateway.PixPayload, error) {
	f.lastCharge = charge
	if f.createFunc != nil {
		return f.createFunc(ctx, charge)
	}
	return &gateway.PixPayload{Code: "pix-code", ExternalID: "ext-1"}, nil
}

func (f *fakeGateway) ParseWebhook(body []byte) (*gateway.WebhookEvent, error) {
	if f.parseFunc != nil {
		return f.parseFunc(body)
	}
	return nil, gateway.ErrNoIdentifier
}

type fakeBroker struct {
	mu        sync.Mutex
	published []models.StatusEvent
	events    chan models.StatusEvent
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{events: make(chan models.StatusEvent, 8)}
}

func (b *fakeBroker) Publish(ctx context.Context, event models.StatusEvent) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	b.mu.Unlock()
	// Forward to any live subscriber, dropping when nobody is listening,
	// like the real broker does.
	select {
	case b.events <- event:
	default:
	}
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, orderID int) (<-chan models.StatusEvent, func()) {
	return b.events, func() {}
}

func (b *fakeBroker) publishedEvents() []models.StatusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.StatusEvent, len(b.published))
	copy(out, b.published)
	return out
}
