// Package mailapi provides a client for HTTP transactional email providers
// that accept a JSON message on a single send endpoint.
package mailapi

import (
	"os"
	"time"
)

// Config holds configuration for the email API client.
type Config struct {
	APIKey  string        // API key sent as a bearer token
	BaseURL string        // Base URL for the API (e.g., "https://api.mailprovider.com/v1")
	Timeout time.Duration // HTTP request timeout
}

// LoadConfig loads email API configuration from environment variables.
func LoadConfig() Config {
	return Config{
		APIKey:  os.Getenv("MAIL_API_KEY"),
		BaseURL: os.Getenv("MAIL_API_BASE_URL"),
		Timeout: 10 * time.Second,
	}
}
