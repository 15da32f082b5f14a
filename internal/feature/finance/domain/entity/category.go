// Package entity defines the domain models for the finance feature.
package entity

import (
	"fmt"
	"time"
)

// CategoryType separates income categories from expense categories.
type CategoryType string

const (
	CategoryIncome  CategoryType = "INCOME"
	CategoryExpense CategoryType = "EXPENSE"
)

// ParseCategoryType converts a query value into a CategoryType.
// An empty string means "no filter" and is returned as is.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(s) {
	case "", CategoryIncome, CategoryExpense:
		return CategoryType(s), nil
	default:
		return "", fmt.Errorf("unknown category type %q", s)
	}
}

// Category labels transactions of a single user.
type Category struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"index;not null"`
	Name      string       `gorm:"size:100;not null"`
	Type      CategoryType `gorm:"size:16;not null"`
	Color     string       `gorm:"size:7;not null"`
	Icon      string       `gorm:"size:16;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultCategories returns the category set every new account starts with.
func DefaultCategories(userID uint) []Category {
	defs := []struct {
		name  string
		typ   CategoryType
		color string
		icon  string
	}{
		{"Salary", CategoryIncome, "#22c55e", "💰"},
		{"Freelance", CategoryIncome, "#3b82f6", "💼"},
		{"Investment", CategoryIncome, "#8b5cf6", "📈"},
		{"Other Income", CategoryIncome, "#06b6d4", "💵"},
		{"Food & Dining", CategoryExpense, "#ef4444", "🍽️"},
		{"Transportation", CategoryExpense, "#f97316", "🚗"},
		{"Shopping", CategoryExpense, "#ec4899", "🛍️"},
		{"Entertainment", CategoryExpense, "#8b5cf6", "🎬"},
		{"Bills & Utilities", CategoryExpense, "#6b7280", "⚡"},
		{"Healthcare", CategoryExpense, "#dc2626", "🏥"},
		{"Education", CategoryExpense, "#2563eb", "📚"},
		{"Other Expenses", CategoryExpense, "#64748b", "💸"},
	}
	out := make([]Category, 0, len(defs))
	for _, d := range defs {
		out = append(out, Category{UserID: userID, Name: d.name, Type: d.typ, Color: d.color, Icon: d.icon})
	}
	return out
}
