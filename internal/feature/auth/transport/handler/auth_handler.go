package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/transport/http/dto"
	"budget_backend/internal/feature/auth/usecase"
	jwtmw "budget_backend/internal/platform/jwt"
)

const (
	msgPasswordChanged = "Password changed successfully"
	msgLoggedOut       = "Logged out successfully"
	msgAccountDeleted  = "Account deleted successfully"
	msgProfileUpdated  = "Profile updated successfully"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register はメール確認済みのアドレスで新規ユーザーを登録します。
	Register(ctx context.Context, email, name, password string) (*usecase.AuthResult, error)
	// Login はユーザーを認証し、成功時にセッショントークンを返します。
	Login(ctx context.Context, email, password string) (*usecase.AuthResult, error)
	Logout(ctx context.Context, claims *entity.Claims) error
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID uint) error
	Profile(ctx context.Context, userID uint) (*entity.User, error)
	UpdateProfile(ctx context.Context, userID uint, name, email string) (*entity.User, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - 事前にverify-otpでメールアドレスが確認されている必要があります
// - 成功時はトークンとユーザー情報付きで201を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "register", err)
		return
	}
	res, err := h.auth.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(c, "register", err)
		return
	}
	c.JSON(http.StatusCreated, dto.AuthRes{Token: res.Token, User: dto.NewUserRes(res.User)})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// 認証失敗時は理由を区別せず401を返却します。
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "login", err)
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthRes{Token: res.Token, User: dto.NewUserRes(res.User)})
}

// Logout は現在のトークンを失効させます。
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := jwtmw.ClaimsFromContext(c)
	if !ok {
		writeError(c, "logout", usecase.ErrUnauthorized)
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims); err != nil {
		writeError(c, "logout", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageRes{Message: msgLoggedOut})
}

// ChangePassword は現在のパスワードを確認した上でパスワードを変更します。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "change password", err)
		return
	}
	err := h.auth.ChangePassword(c.Request.Context(), c.GetUint(jwtmw.ContextUserID), req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(c, "change password", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageRes{Message: msgPasswordChanged})
}

// DeleteAccount はアカウントと所有データをすべて削除します。
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.auth.DeleteAccount(c.Request.Context(), c.GetUint(jwtmw.ContextUserID)); err != nil {
		writeError(c, "delete account", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageRes{Message: msgAccountDeleted})
}

// Profile は認証済みユーザーの情報を返します。
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), c.GetUint(jwtmw.ContextUserID))
	if err != nil {
		writeError(c, "profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.ProfileRes{User: dto.NewUserRes(user)})
}

// UpdateProfile は名前とメールアドレスを更新します。
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "update profile", err)
		return
	}
	user, err := h.auth.UpdateProfile(c.Request.Context(), c.GetUint(jwtmw.ContextUserID), req.Name, req.Email)
	if err != nil {
		writeError(c, "update profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.UpdateProfileRes{Message: msgProfileUpdated, User: dto.NewUserRes(user)})
}
