package database

import (
	"context"
	"database/sql"
	"fmt"

	"pix-payment-svc/gateway"
)

// PushinPayCredentials reads the rotatable PushinPay token from the
// append-only pushinpay_config table. It satisfies gateway.CredentialSource.
type PushinPayCredentials struct {
	db *sql.DB
}

func NewPushinPayCredentials(db *sql.DB) *PushinPayCredentials {
	return &PushinPayCredentials{db: db}
}

// LatestCredential returns the most recently inserted token and environment.
func (c *PushinPayCredentials) LatestCredential(ctx context.Context) (string, string, error) {
	var token, environment string
	err := c.db.QueryRowContext(ctx,
		"SELECT token, environment FROM pushinpay_config ORDER BY created_at DESC, id DESC LIMIT 1",
	).Scan(&token, &environment)
	if err == sql.ErrNoRows {
		return "", "", gateway.ErrNotConfigured
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to load pushinpay config: %w", err)
	}
	return token, environment, nil
}
