package database

import (
	"database/sql"
	"fmt"

	"pix-payment-svc/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func InitDB(cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)

	db, err := sql.Open("postgres", psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Orders are an append-only payment ledger: webhooks mutate status and
	// amount_cents, rows are never deleted.
	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		external_id VARCHAR(255) NOT NULL UNIQUE,
		type VARCHAR(50) NOT NULL DEFAULT 'subscription',
		amount_cents BIGINT NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(createOrdersQuery); err != nil {
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}

	// PushinPay credentials are append-only; the newest row wins.
	createConfigQuery := `
	CREATE TABLE IF NOT EXISTS pushinpay_config (
		id SERIAL PRIMARY KEY,
		token TEXT NOT NULL,
		environment VARCHAR(20) NOT NULL DEFAULT 'sandbox',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := db.Exec(createConfigQuery); err != nil {
		return nil, fmt.Errorf("failed to create pushinpay_config table: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}
