package di

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"budget_backend/internal/app/router"
	authadapters "budget_backend/internal/feature/auth/adapters"
	authhandler "budget_backend/internal/feature/auth/transport/handler"
	authusecase "budget_backend/internal/feature/auth/usecase"
	financeadapters "budget_backend/internal/feature/finance/adapters"
	financehandler "budget_backend/internal/feature/finance/transport/handler"
	financeusecase "budget_backend/internal/feature/finance/usecase"
	"budget_backend/internal/platform/config"
	dbx "budget_backend/internal/platform/db"
	healthhandler "budget_backend/internal/platform/http/handler"
	jwtmw "budget_backend/internal/platform/jwt"
	"budget_backend/internal/platform/ratelimit"
)

// AuthConfig maps the process configuration onto the auth usecase tunables.
func AuthConfig(cfg config.Config) authusecase.Config {
	ac := authusecase.DefaultConfig()
	ac.OTPTTL = cfg.OTPTTL
	ac.VerifiedWindow = cfg.VerifiedWindow
	ac.BcryptCost = cfg.BcryptCost
	ac.DevMode = cfg.DevMode
	ac.MailTimeout = cfg.Mail.Timeout
	ac.SendLimit = cfg.SendLimit
	ac.VerifyLimit = cfg.VerifyLimit
	ac.LoginLimit = cfg.LoginLimit
	ac.ResetLimit = cfg.ResetLimit
	return ac
}

// Overrides replaces individual components, mostly for tests.
type Overrides struct {
	Mailer  authusecase.OTPMailer
	Limiter ratelimit.Limiter
}

// NewServer wires repositories, usecases and handlers into a router.
// rdb may be nil; Redis-backed components then fall back to the database or memory.
func NewServer(cfg config.Config, db *gorm.DB, rdb *redis.Client, o Overrides) (*gin.Engine, error) {
	// Repository
	userRepo := authadapters.NewUserGorm(db)
	otpRepo := authadapters.NewOTPGorm(db)
	categoryRepo := NewCategoryStore(rdb, cfg.CategoryCacheTTL, financeadapters.NewCategoryGorm(db))
	revoked := NewRevocationStore(rdb, db)
	tx := dbx.NewTransactor(db)

	limiter := o.Limiter
	if limiter == nil {
		limiter = NewLimiter(rdb)
	}
	mailer := o.Mailer
	if mailer == nil {
		m, err := NewMailer(cfg.Mail)
		if err != nil {
			return nil, fmt.Errorf("mailer: %w", err)
		}
		mailer = m
	}
	tokens := jwtmw.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	// Usecase
	authCfg := AuthConfig(cfg)
	authUC := authusecase.NewAuthUsecase(userRepo, otpRepo, categoryRepo, tx, tokens, revoked, limiter, authCfg)
	otpUC := authusecase.NewOTPUsecase(userRepo, otpRepo, tx, mailer, limiter, authCfg)
	categoryUC := financeusecase.NewCategoryUsecase(categoryRepo)

	// Handler
	ready := map[string]healthhandler.Check{
		"db": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		ready["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return router.NewRouter(router.Deps{
		Auth:        authhandler.NewAuthHandler(authUC),
		OTP:         authhandler.NewOTPHandler(otpUC),
		Categories:  financehandler.NewCategoryHandler(categoryUC),
		Verifier:    authUC,
		Limiter:     limiter,
		SendRule:    cfg.SendLimit,
		IPRule:      cfg.IPLimit,
		Ready:       ready,
		CORSOrigins: cfg.CORSAllowOrigins,
	}), nil
}
