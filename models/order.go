package models

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

type ProductType string

const (
	ProductSubscription ProductType = "subscription"
	ProductWhatsApp     ProductType = "whatsapp"
)

// Prices in BRL cents, fixed per product. The client never chooses the
// amount.
var ProductPrices = map[ProductType]int64{
	ProductSubscription: 2990,
	ProductWhatsApp:     15000,
}

type Order struct {
	ID          int         `json:"id"`
	ExternalID  string      `json:"external_id"`
	Type        ProductType `json:"type"`
	AmountCents int64       `json:"amount_cents"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CreateChargeRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Document string      `json:"document"`
	Phone    string      `json:"phone"`
	Amount   int64       `json:"amount"`
	Type     ProductType `json:"type"`
}

// ChargeResponse is what the client renders as a QR code / copy-paste
// string. OrderID is null when the local insert failed; the charge still
// exists at the gateway.
type ChargeResponse struct {
	Code        string `json:"code"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	ExternalID  string `json:"externalId"`
	OrderID     *int   `json:"orderId"`
}

// StatusEvent is delivered on the notification channel when a webhook
// updates an order.
type StatusEvent struct {
	OrderID     int         `json:"order_id"`
	Type        ProductType `json:"type"`
	Status      OrderStatus `json:"status"`
	AmountCents int64       `json:"amount_cents"`
}

type PushinPayConfigRequest struct {
	Token       string `json:"token"`
	Environment string `json:"environment"`
}
