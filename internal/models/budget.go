package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending ceiling for one category.
// (user, category, month) is deliberately not unique.
type Budget struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	CategoryID uint            `gorm:"index;not null" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	Month      string          `gorm:"size:7;index;not null" json:"month"` // YYYY-MM
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"-"`

	User     *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
