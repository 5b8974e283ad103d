package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 金额以 JSON 数字输出（而不是字符串），前端可以直接使用
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction 表示一笔收入或支出
// 金额用 decimal 存成文本，读写都不经过浮点
type Transaction struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"user_id"`
	Amount     decimal.Decimal `gorm:"type:text;not null" json:"amount"`
	CategoryID uint            `gorm:"index;not null" json:"category_id"`
	Type       string          `gorm:"size:16;index;not null" json:"type"` // income / expense
	Note       string          `gorm:"type:text" json:"note"`
	Tags       string          `gorm:"size:512" json:"tags"`               // 逗号分隔
	Date       string          `gorm:"size:10;index;not null" json:"date"` // YYYY-MM-DD
	ReceiptURL string          `gorm:"size:512" json:"receipt_url"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"-"`

	User     *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
