// Package di provides dependency injection factories for creating application components.
package di

import (
	"errors"
	"fmt"
	"time"

	"budget_backend/internal/platform/config"
	"budget_backend/internal/platform/externalapi/mailapi"
	infrahttp "budget_backend/internal/platform/http"
	"budget_backend/internal/platform/mail"
	"budget_backend/internal/shared/ratelimiter"
)

// NewMailTransport selects the outbound mail transport named by cfg.Transport.
func NewMailTransport(cfg config.MailConfig) (mail.Transport, error) {
	switch cfg.Transport {
	case config.MailTransportSMTP:
		return mail.NewSMTPTransport(cfg.SMTP), nil
	case config.MailTransportAPI:
		apiCfg := mailapi.LoadConfig()
		if apiCfg.APIKey == "" || apiCfg.BaseURL == "" {
			return nil, errors.New("MAIL_API_KEY and MAIL_API_BASE_URL are required for MAIL_TRANSPORT=api")
		}
		httpClient := infrahttp.NewHTTPClient(apiCfg.Timeout)
		return mailapi.NewClient(apiCfg, httpClient), nil
	case config.MailTransportLog:
		return mail.LogTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// NewMailer creates a fully configured Mailer, paced to cfg.RatePerMinute.
func NewMailer(cfg config.MailConfig) (*mail.Mailer, error) {
	t, err := NewMailTransport(cfg)
	if err != nil {
		return nil, err
	}
	pacer := ratelimiter.NewRateLimiter(cfg.RatePerMinute, time.Minute)
	return mail.NewMailer(t, cfg.From, cfg.AppName, pacer), nil
}
