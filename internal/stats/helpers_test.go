package stats

import (
	"testing"

	"expense-tracker/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func expense(cat uint, amount, date string) models.Transaction {
	return models.Transaction{CategoryID: cat, Type: models.TypeExpense, Amount: dec(amount), Date: date}
}

func income(cat uint, amount, date string) models.Transaction {
	return models.Transaction{CategoryID: cat, Type: models.TypeIncome, Amount: dec(amount), Date: date}
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
