package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"budget_backend/internal/feature/finance/domain/entity"
	"budget_backend/internal/feature/finance/transport/http/dto"
	"budget_backend/internal/feature/finance/usecase"
	jwtmw "budget_backend/internal/platform/jwt"
)

// CategoryUsecase はカテゴリ一覧に関するユースケースのインターフェースです。
type CategoryUsecase interface {
	List(ctx context.Context, userID uint, rawType string) ([]entity.Category, error)
}

// CategoryHandler はカテゴリに関するHTTPリクエストを処理します。
type CategoryHandler struct {
	uc CategoryUsecase
}

// NewCategoryHandler は新しい CategoryHandler を作成します。
func NewCategoryHandler(uc CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

// List は認証済みユーザーのカテゴリ一覧を返すAPIです。
// クエリパラメータ type（INCOME または EXPENSE）で絞り込みできます。
func (h *CategoryHandler) List(c *gin.Context) {
	userID := c.GetUint(jwtmw.ContextUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	categories, err := h.uc.List(c.Request.Context(), userID, c.Query("type"))
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCategoryType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": usecase.ErrInvalidCategoryType.Error()})
			return
		}
		slog.Error("failed to list categories", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	out := make([]dto.CategoryItem, 0, len(categories))
	for _, cat := range categories {
		out = append(out, dto.CategoryItem{
			ID:    cat.ID,
			Name:  cat.Name,
			Type:  string(cat.Type),
			Color: cat.Color,
			Icon:  cat.Icon,
		})
	}
	c.JSON(http.StatusOK, out)
}
