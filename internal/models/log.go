package models

import "time"

// AuditLog records mutating requests for auditing.
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    *uint  `gorm:"index"`
	Method    string `gorm:"size:16"`
	PathEnc   string `gorm:"size:1024"` // 加密后的路径
	Status    int
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time

	User *User `gorm:"constraint:OnDelete:CASCADE"`
}
