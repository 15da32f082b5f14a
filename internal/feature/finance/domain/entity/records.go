package entity

import "time"

// UserSettings holds per-user notification and display preferences.
type UserSettings struct {
	ID                 uint   `gorm:"primaryKey"`
	UserID             uint   `gorm:"uniqueIndex;not null"`
	EmailNotifications bool   `gorm:"not null;default:true"`
	TransactionAlerts  bool   `gorm:"not null;default:true"`
	MonthlyReports     bool   `gorm:"not null;default:false"`
	BudgetAlerts       bool   `gorm:"not null;default:true"`
	Currency           string `gorm:"size:8;not null;default:USD"`
	DateFormat         string `gorm:"size:16;not null;default:MM/DD/YYYY"`
	Theme              string `gorm:"size:16;not null;default:system"`
	Language           string `gorm:"size:8;not null;default:en"`
	UpdatedAt          time.Time
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID          uint         `gorm:"primaryKey"`
	UserID      uint         `gorm:"index;not null"`
	CategoryID  *uint        `gorm:"index"`
	Type        CategoryType `gorm:"size:16;not null"`
	Amount      float64      `gorm:"not null"`
	Description string       `gorm:"size:255"`
	Date        time.Time    `gorm:"index;not null"`
	CreatedAt   time.Time
}

// Asset is something of value owned by the user.
type Asset struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"index;not null"`
	Name      string  `gorm:"size:255;not null"`
	Type      string  `gorm:"size:32;not null"`
	Value     float64 `gorm:"not null"`
	CreatedAt time.Time
}

// Liability is a debt owed by the user.
type Liability struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"index;not null"`
	Name      string  `gorm:"size:255;not null"`
	Type      string  `gorm:"size:32;not null"`
	Amount    float64 `gorm:"not null"`
	CreatedAt time.Time
}

// Receivable is money other people owe the user.
type Receivable struct {
	ID           uint    `gorm:"primaryKey"`
	UserID       uint    `gorm:"index;not null"`
	Counterparty string  `gorm:"size:255;not null"`
	Amount       float64 `gorm:"not null"`
	DueDate      *time.Time
	PaidAt       *time.Time
	CreatedAt    time.Time
}

// Payable is money the user owes other people.
type Payable struct {
	ID           uint    `gorm:"primaryKey"`
	UserID       uint    `gorm:"index;not null"`
	Counterparty string  `gorm:"size:255;not null"`
	Amount       float64 `gorm:"not null"`
	DueDate      *time.Time
	PaidAt       *time.Time
	CreatedAt    time.Time
}

// OwnedModels lists every table keyed by a user id, in the order they must be
// deleted when the owning account is removed.
func OwnedModels() []any {
	return []any{
		&UserSettings{},
		&Transaction{},
		&Receivable{},
		&Payable{},
		&Asset{},
		&Liability{},
		&Category{},
	}
}
