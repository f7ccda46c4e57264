package config

import "os"

// Config holds everything the service reads from the environment. It is
// built once in main and passed by reference; nothing reads env vars after
// startup.
type Config struct {
	HTTPAddr string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// PublicBaseURL is the externally reachable base of this deployment,
	// used to build the webhook URLs handed to the gateways.
	PublicBaseURL string

	TriboPayAPIKey  string
	TriboPayBaseURL string

	PushinPaySandboxURL    string
	PushinPayProductionURL string

	SyncClientID     string
	SyncClientSecret string
	SyncBaseURL      string
}

func Load() *Config {
	return &Config{
		HTTPAddr: ":" + getEnv("PORT", "8085"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "pixdb"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8085"),

		TriboPayAPIKey:  getEnv("TRIBOPAY_API_KEY", ""),
		TriboPayBaseURL: getEnv("TRIBOPAY_BASE_URL", "https://api.tribopay.com.br"),

		PushinPaySandboxURL:    getEnv("PUSHINPAY_SANDBOX_URL", "https://api-sandbox.pushinpay.com.br/api"),
		PushinPayProductionURL: getEnv("PUSHINPAY_PRODUCTION_URL", "https://api.pushinpay.com.br/api"),

		SyncClientID:     getEnv("SYNC_CLIENT_ID", ""),
		SyncClientSecret: getEnv("SYNC_CLIENT_SECRET", ""),
		SyncBaseURL:      getEnv("SYNC_BASE_URL", "https://api.syncpayments.com.br"),
	}
}

// WebhookURL builds the public callback URL for a provider's webhook path.
func (c *Config) WebhookURL(provider string) string {
	return c.PublicBaseURL + "/webhooks/" + provider
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
