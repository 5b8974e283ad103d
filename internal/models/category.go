package models

import "time"

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Category represents income/expense category.
// UserID 为 nil 时是全局默认分类，对所有用户可见。
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Type      string    `gorm:"size:16;index;not null" json:"type"` // income / expense
	Icon      string    `gorm:"size:32;not null" json:"icon"`
	Color     string    `gorm:"size:16;not null" json:"color"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsGlobal reports whether the category is a shared default.
func (c *Category) IsGlobal() bool {
	return c.UserID == nil
}

const (
	DefaultCategoryIcon  = "DollarSign"
	DefaultCategoryColor = "#3B82F6"
)
