package models

import "time"

// User represents application user.
// Email 唯一且区分大小写，与注册/登录时的精确匹配保持一致。
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:128;not null" json:"name"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:255;not null" json:"-"`
	ProfilePicture string    `gorm:"size:512" json:"profile_picture"`
	Theme          string    `gorm:"size:8;not null;default:light" json:"theme"` // light / dark
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"-"`
}

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)
