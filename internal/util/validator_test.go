package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	valid := []string{"0.01", "1", "100.5", "999999999.99"}
	for _, s := range valid {
		if err := ValidateAmount(decimal.RequireFromString(s)); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}

	invalid := []string{"0", "-0.01", "-100", "1000000000"}
	for _, s := range invalid {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
}

func TestValidateBudgetAmount(t *testing.T) {
	if err := ValidateBudgetAmount(decimal.Zero); err != nil {
		t.Errorf("ValidateBudgetAmount(0) error = %v, want nil", err)
	}
	if err := ValidateBudgetAmount(decimal.RequireFromString("-1")); err == nil {
		t.Error("ValidateBudgetAmount(-1) error = nil, want error")
	}
}

func TestValidateDate(t *testing.T) {
	for _, date := range []string{"2024-01-01", "2024-12-31", "2024-02-29"} {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}

	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01", // 月份错误
		"2024-01-32", // 日期错误
		"2023-02-29", // 非闰年
	}
	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestValidateMonth(t *testing.T) {
	tests := []struct {
		month   string
		wantErr bool
	}{
		{"2025-01", false},
		{"1999-12", false},
		{"", true},
		{"2025-1", true},
		{"2025-13", true},
		{"2025-01-01", true},
		{"Jan 2025", true},
	}
	for _, tt := range tests {
		err := ValidateMonth(tt.month)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateMonth(%q) error = %v, wantErr %v", tt.month, err, tt.wantErr)
		}
	}
}

func TestValidateEnums(t *testing.T) {
	if ValidateType("income") != nil || ValidateType("expense") != nil {
		t.Error("income/expense should be valid types")
	}
	if ValidateType("transfer") == nil || ValidateType("") == nil {
		t.Error("unknown type should be rejected")
	}
	if ValidateTheme("light") != nil || ValidateTheme("dark") != nil {
		t.Error("light/dark should be valid themes")
	}
	if ValidateTheme("blue") == nil {
		t.Error("unknown theme should be rejected")
	}
}

func TestValidateColor(t *testing.T) {
	for _, c := range []string{"#3B82F6", "#abcdef", "#000000"} {
		if err := ValidateColor(c); err != nil {
			t.Errorf("ValidateColor(%q) error = %v", c, err)
		}
	}
	for _, c := range []string{"", "3B82F6", "#3B82F", "#GGGGGG", "red"} {
		if err := ValidateColor(c); err == nil {
			t.Errorf("ValidateColor(%q) error = nil, want error", c)
		}
	}
}

func TestValidateCategory(t *testing.T) {
	for _, name := range []string{"Food & Dining", "餐饮", "Pets"} {
		if err := ValidateCategory(name); err != nil {
			t.Errorf("ValidateCategory(%q) error = %v", name, err)
		}
	}
	if err := ValidateCategory(""); err == nil {
		t.Error("ValidateCategory(\"\") error = nil, want error")
	}
	long := make([]rune, 65)
	for i := range long {
		long[i] = '长'
	}
	if err := ValidateCategory(string(long)); err == nil {
		t.Error("ValidateCategory() with long string error = nil, want error")
	}
}
