// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"budget_backend/internal/feature/auth/transport/http/dto"
	"budget_backend/internal/feature/auth/usecase"
)

const msgInternal = "internal server error"

// writeError はユースケースのエラーをHTTPステータスに変換して返却します。
// 想定外のエラーは詳細をログに出力し、クライアントには汎用メッセージのみを返します。
func writeError(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	msg := msgInternal

	var rl *usecase.RateLimitError
	switch {
	case errors.As(err, &rl):
		if rl.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(rl.RetryAfter.Seconds()))))
		}
		status, msg = http.StatusTooManyRequests, usecase.ErrRateLimited.Error()
	case errors.Is(err, usecase.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, usecase.ErrRateLimited.Error()
	case errors.Is(err, usecase.ErrValidation):
		// 入力値の詳細はクライアントに返してよい
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, usecase.ErrInvalidOrExpiredCode),
		errors.Is(err, usecase.ErrAlreadyRegistered),
		errors.Is(err, usecase.ErrEmailNotVerified):
		status, msg = http.StatusBadRequest, rootMessage(err)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, usecase.ErrInvalidCredentials.Error()
	case errors.Is(err, usecase.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, usecase.ErrUnauthorized.Error()
	case errors.Is(err, usecase.ErrUserNotFound):
		status, msg = http.StatusNotFound, usecase.ErrUserNotFound.Error()
	}

	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", "error", err, "remote_addr", c.ClientIP())
	} else {
		slog.Warn(op+" rejected", "error", err, "status", status, "remote_addr", c.ClientIP())
	}
	c.JSON(status, dto.ErrorRes{Error: msg})
}

// rootMessage returns the message of the matching sentinel.
func rootMessage(err error) string {
	for _, s := range []error{usecase.ErrInvalidOrExpiredCode, usecase.ErrAlreadyRegistered, usecase.ErrEmailNotVerified} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

// badRequest answers a body that could not be bound.
func badRequest(c *gin.Context, op string, err error) {
	slog.Warn(op+" validation failed", "error", err, "remote_addr", c.ClientIP())
	c.JSON(http.StatusBadRequest, dto.ErrorRes{Error: "invalid request"})
}
