package models

import "time"

const (
	NotifyBudgetWarning  = "budget_warning"
	NotifyBudgetExceeded = "budget_exceeded"
	NotifyLowBalance     = "low_balance"
)

// Notification 是通知调度器产生的提醒
// Key 在同一用户下唯一，用来避免每次检查都重复提醒
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_notification_user_key;not null" json:"user_id"`
	Key       string    `gorm:"uniqueIndex:idx_notification_user_key;size:128;not null" json:"-"`
	BudgetID  *uint     `gorm:"index" json:"budget_id"`
	Kind      string    `gorm:"size:32;not null" json:"kind"`
	Message   string    `gorm:"size:512;not null" json:"message"`
	Month     string    `gorm:"size:7" json:"month"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `json:"created_at"`

	User   *User   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Budget *Budget `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
