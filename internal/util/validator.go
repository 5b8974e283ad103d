package util

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

var (
	maxAmount = decimal.NewFromInt(1_000_000_000)
	colorRe   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// ValidateAmount 验证交易金额（必须为正数且不超过上限）
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidateBudgetAmount 预算金额允许为 0
func ValidateBudgetAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("budget amount must not be negative, got %s", amount)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("amount too large, got %s", amount)
	}
	return nil
}

// ValidateDate 验证日期格式（必须为 YYYY-MM-DD）
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	if _, err := time.Parse(DateLayout, dateStr); err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateMonth 验证月份格式（必须为 YYYY-MM）
func ValidateMonth(month string) error {
	if month == "" {
		return fmt.Errorf("month is empty")
	}
	if _, err := time.Parse(MonthLayout, month); err != nil {
		return fmt.Errorf("invalid month format: %w", err)
	}
	return nil
}

// ValidateType 收支类型只能是 income / expense
func ValidateType(kind string) error {
	if kind != "income" && kind != "expense" {
		return fmt.Errorf("type must be income or expense, got %q", kind)
	}
	return nil
}

// ValidateTheme 主题只能是 light / dark
func ValidateTheme(theme string) error {
	if theme != "light" && theme != "dark" {
		return fmt.Errorf("theme must be light or dark, got %q", theme)
	}
	return nil
}

// ValidateColor 颜色为 #RRGGBB
func ValidateColor(color string) error {
	if !colorRe.MatchString(color) {
		return fmt.Errorf("invalid color %q", color)
	}
	return nil
}

// ValidateCategory 验证分类名（不能为空且长度合理）
func ValidateCategory(category string) error {
	if category == "" {
		return fmt.Errorf("category is empty")
	}
	if utf8.RuneCountInString(category) > 64 {
		return fmt.Errorf("category too long, max 64 characters")
	}
	return nil
}
