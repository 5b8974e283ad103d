package stats

import (
	"sort"

	"expense-tracker/internal/models"

	"github.com/shopspring/decimal"
)

// DaySummary is the calendar cell for one date.
type DaySummary struct {
	Date     string          `json:"date"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
	Count    int             `json:"count"`
}

// Calendar groups the transactions of month key by date, oldest first.
// Only days with at least one transaction are returned.
func Calendar(txs []models.Transaction, key string) []DaySummary {
	days := make(map[string]*DaySummary)
	for i := range txs {
		tx := &txs[i]
		if !inMonth(tx.Date, key) {
			continue
		}
		d, ok := days[tx.Date]
		if !ok {
			d = &DaySummary{Date: tx.Date, Income: decimal.Zero, Expenses: decimal.Zero}
			days[tx.Date] = d
		}
		switch tx.Type {
		case models.TypeIncome:
			d.Income = d.Income.Add(tx.Amount)
		case models.TypeExpense:
			d.Expenses = d.Expenses.Add(tx.Amount)
		}
		d.Count++
	}

	out := make([]DaySummary, 0, len(days))
	for _, d := range days {
		d.Balance = d.Income.Sub(d.Expenses)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
