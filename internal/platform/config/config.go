// Package config loads the application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"budget_backend/internal/platform/mail"
	"budget_backend/internal/platform/ratelimit"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	MailTransportSMTP = "smtp"
	MailTransportAPI  = "api"
	MailTransportLog  = "log"

	minSecretLength = 32
	minBcryptCost   = 10
	devSecret       = "development-only-secret-do-not-use-in-production"
)

// Config is the process-wide configuration.
type Config struct {
	Env     string
	DevMode bool
	Port    string

	JWTSecret string
	JWTTTL    time.Duration

	OTPTTL         time.Duration
	VerifiedWindow time.Duration
	BcryptCost     int

	SendLimit   ratelimit.Rule
	VerifyLimit ratelimit.Rule
	LoginLimit  ratelimit.Rule
	ResetLimit  ratelimit.Rule
	IPLimit     ratelimit.Rule

	Mail MailConfig

	CORSAllowOrigins []string
	CategoryCacheTTL time.Duration
}

// MailConfig selects and configures the outbound mail transport.
type MailConfig struct {
	Transport     string
	From          string
	AppName       string
	SMTP          mail.SMTPConfig
	RatePerMinute int
	Timeout       time.Duration
}

// LoadDotEnv loads .env into the environment if it exists.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Info(".env not found; using system environment variables", "path", path)
	}
}

// LoadConfigFromEnv reads and validates the configuration.
func LoadConfigFromEnv() (Config, error) {
	env := getString("APP_ENV", EnvProduction)
	cfg := Config{
		Env:     env,
		DevMode: env == EnvDevelopment,
		Port:    getString("PORT", "8080"),
	}

	var (
		errs []error
		err  error
	)
	dur := func(key string, def time.Duration) time.Duration {
		d, err := getDuration(key, def)
		errs = append(errs, err)
		return d
	}
	num := func(key string, def int) int {
		n, err := getInt(key, def)
		errs = append(errs, err)
		return n
	}
	rule := func(name string, max int, window time.Duration) ratelimit.Rule {
		return ratelimit.Rule{
			Max:    num("RATE_LIMIT_"+name+"_MAX", max),
			Window: dur("RATE_LIMIT_"+name+"_WINDOW", window),
		}
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.JWTTTL = dur("JWT_TTL", 7*24*time.Hour)
	cfg.OTPTTL = dur("OTP_TTL", 10*time.Minute)
	cfg.VerifiedWindow, err = VerifiedWindowFromEnv()
	errs = append(errs, err)
	cfg.BcryptCost = num("BCRYPT_COST", 12)

	cfg.SendLimit = rule("SEND", 5, 15*time.Minute)
	cfg.VerifyLimit = rule("VERIFY", 10, 15*time.Minute)
	cfg.LoginLimit = rule("LOGIN", 5, 15*time.Minute)
	cfg.ResetLimit = rule("RESET", 5, 15*time.Minute)
	cfg.IPLimit = rule("IP", 20, 15*time.Minute)

	cfg.Mail = MailConfig{
		Transport: strings.ToLower(getString("MAIL_TRANSPORT", MailTransportSMTP)),
		From:      os.Getenv("MAIL_FROM"),
		AppName:   getString("APP_NAME", "Budget"),
		SMTP: mail.SMTPConfig{
			Host:     os.Getenv("MAIL_HOST"),
			Port:     num("MAIL_PORT", 587),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
		},
		RatePerMinute: num("MAIL_RATE_PER_MINUTE", 60),
		Timeout:       dur("MAIL_TIMEOUT", 30*time.Second),
	}

	cfg.CORSAllowOrigins = splitList(os.Getenv("CORS_ALLOW_ORIGINS"))
	cfg.CategoryCacheTTL = dur("CATEGORY_CACHE_TTL", 5*time.Minute)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		if !c.DevMode {
			return errors.New("JWT_SECRET is required")
		}
		slog.Warn("JWT_SECRET is not set; using an insecure development secret")
		c.JWTSecret = devSecret
	}
	if !c.DevMode && len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.BcryptCost < minBcryptCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", minBcryptCost, bcrypt.MaxCost)
	}

	switch c.Mail.Transport {
	case MailTransportSMTP:
		if c.Mail.SMTP.Host == "" {
			if !c.DevMode {
				return errors.New("MAIL_HOST is required for MAIL_TRANSPORT=smtp")
			}
			slog.Warn("MAIL_HOST is not set; emails will be logged instead of sent")
			c.Mail.Transport = MailTransportLog
		}
	case MailTransportLog:
		if !c.DevMode {
			return errors.New("MAIL_TRANSPORT=log is only allowed in development")
		}
	case MailTransportAPI:
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.SMTP.Username
	}
	return nil
}

// VerifiedWindowFromEnv reads OTP_VERIFIED_WINDOW, the time a verified email
// code stays usable for registration. Defaults to 30 minutes.
func VerifiedWindowFromEnv() (time.Duration, error) {
	return getDuration("OTP_VERIFIED_WINDOW", 30*time.Minute)
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
