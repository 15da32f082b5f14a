// Package dto はauthフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

// SendOTPReq は/auth/send-otpのリクエストボディです。
// purposeを省略した場合はメールアドレス確認として扱います。
type SendOTPReq struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose"`
}

// ForgotPasswordReq は/auth/forgot-passwordのリクエストボディです。
type ForgotPasswordReq struct {
	Email string `json:"email" binding:"required"`
}

// VerifyOTPReq は/auth/verify-otpのリクエストボディです。
type VerifyOTPReq struct {
	Email   string `json:"email" binding:"required"`
	OTP     string `json:"otp" binding:"required"`
	Purpose string `json:"purpose"`
}

// RegisterReq は/auth/registerのリクエストボディです。
type RegisterReq struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginReq は/auth/loginのリクエストボディです。
type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordReq は/auth/reset-passwordのリクエストボディです。
type ResetPasswordReq struct {
	Email       string `json:"email" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ChangePasswordReq は/auth/change-passwordのリクエストボディです。
type ChangePasswordReq struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// UpdateProfileReq はPUT /auth/profileのリクエストボディです。
// 空のフィールドは変更されません。
type UpdateProfileReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
