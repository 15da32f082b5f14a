package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	authhandler "budget_backend/internal/feature/auth/transport/handler"
	financehandler "budget_backend/internal/feature/finance/transport/handler"
	"budget_backend/internal/platform/http/handler"
	jwtmw "budget_backend/internal/platform/jwt"
	"budget_backend/internal/platform/ratelimit"
)

// Deps holds everything the router mounts.
type Deps struct {
	Auth       *authhandler.AuthHandler
	OTP        *authhandler.OTPHandler
	Categories *financehandler.CategoryHandler
	Verifier   jwtmw.TokenVerifier

	// Limiter backs the per-IP limits. nil disables them.
	Limiter  ratelimit.Limiter
	SendRule ratelimit.Rule
	IPRule   ratelimit.Rule

	Ready       map[string]handler.Check
	CORSOrigins []string
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// ブラウザクライアント向け。未設定の場合は無効
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(d.Ready))

	perIPSend := ratelimit.Middleware(d.Limiter, d.SendRule, ratelimit.ByClientIP)
	perIP := ratelimit.Middleware(d.Limiter, d.IPRule, ratelimit.ByClientIP)

	// 認証不要
	public := r.Group("/auth")
	{
		// ワンタイムコードの発行（メールアドレス確認／パスワードリセット）
		public.POST("/send-otp", perIPSend, d.OTP.SendOTP)
		public.POST("/forgot-password", perIPSend, d.OTP.ForgotPassword)
		public.POST("/verify-otp", perIP, d.OTP.VerifyOTP)
		public.POST("/reset-password", perIP, d.OTP.ResetPassword)
		// 新規ユーザー登録（確認済みメールアドレスのみ）
		public.POST("/register", perIP, d.Auth.Register)
		// ログイン（JWT 発行）
		public.POST("/login", perIP, d.Auth.Login)
	}

	// 認証必須のルート
	// → リクエストヘッダーに Bearer トークンが必要になる
	authRequired := jwtmw.AuthRequired(d.Verifier)
	private := r.Group("/auth", authRequired)
	{
		private.POST("/change-password", d.Auth.ChangePassword)
		private.POST("/logout", d.Auth.Logout)
		private.DELETE("/account", d.Auth.DeleteAccount)
		private.GET("/profile", d.Auth.Profile)
		private.PUT("/profile", d.Auth.UpdateProfile)
	}
	r.GET("/categories", authRequired, d.Categories.List)

	return r
}
