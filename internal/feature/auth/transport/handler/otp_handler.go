package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"budget_backend/internal/feature/auth/domain/entity"
	"budget_backend/internal/feature/auth/transport/http/dto"
	"budget_backend/internal/feature/auth/usecase"
)

const msgOTPVerified = "OTP verified successfully"

// OTPUsecase はワンタイムコードのユースケースを定義します。
type OTPUsecase interface {
	SendCode(ctx context.Context, email string, purpose entity.Purpose) (*usecase.SendResult, error)
	VerifyCode(ctx context.Context, email, code string, purpose entity.Purpose) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// OTPHandler はワンタイムコードの発行・検証・パスワードリセットを処理します。
type OTPHandler struct {
	otp OTPUsecase
}

// NewOTPHandler はOTPHandlerの新しいインスタンスを生成します。
func NewOTPHandler(otp OTPUsecase) *OTPHandler {
	return &OTPHandler{otp: otp}
}

// SendOTP はコードを発行してメールで送信します。
// 開発モードの場合のみ、レスポンスにコードを含めます。
func (h *OTPHandler) SendOTP(c *gin.Context) {
	var req dto.SendOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "send otp", err)
		return
	}
	purpose, err := entity.ParsePurpose(req.Purpose)
	if err != nil {
		writeError(c, "send otp", fmt.Errorf("%w: %v", usecase.ErrValidation, err))
		return
	}
	h.send(c, req.Email, purpose)
}

// ForgotPassword はパスワードリセット用のコードを発行します。
// アカウントの有無にかかわらず同じレスポンスを返します。
func (h *OTPHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "forgot password", err)
		return
	}
	h.send(c, req.Email, entity.PurposePasswordReset)
}

func (h *OTPHandler) send(c *gin.Context, email string, purpose entity.Purpose) {
	res, err := h.otp.SendCode(c.Request.Context(), email, purpose)
	if err != nil {
		writeError(c, "send otp", err)
		return
	}
	c.JSON(http.StatusOK, dto.SendOTPRes{Message: res.Message, OTP: res.DebugCode})
}

// VerifyOTP はコードを検証します。
func (h *OTPHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "verify otp", err)
		return
	}
	purpose, err := entity.ParsePurpose(req.Purpose)
	if err != nil {
		writeError(c, "verify otp", fmt.Errorf("%w: %v", usecase.ErrValidation, err))
		return
	}
	if err := h.otp.VerifyCode(c.Request.Context(), req.Email, req.OTP, purpose); err != nil {
		writeError(c, "verify otp", err)
		return
	}
	c.JSON(http.StatusOK, dto.VerifyOTPRes{Message: msgOTPVerified, Verified: true})
}

// ResetPassword はリセット用コードを消費してパスワードを更新します。
func (h *OTPHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "reset password", err)
		return
	}
	if err := h.otp.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		writeError(c, "reset password", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageRes{Message: usecase.MessagePasswordReset})
}
