package stats

import (
	"sort"
	"time"

	"expense-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const (
	UnknownCategoryName  = "Unknown"
	UnknownCategoryColor = "#6B7280"
	UnknownCategoryIcon  = "Help"

	trendMonths = 6
)

// Totals are the income/expense sums for one month window.
type Totals struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// CategoryTotal is one slice of the current month's expense breakdown.
type CategoryTotal struct {
	CategoryID uint            `json:"category_id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
}

// MonthTrend is one point of the six month trend.
type MonthTrend struct {
	Month    string          `json:"month"` // short name, e.g. "Jan"
	Key      string          `json:"key"`   // YYYY-MM
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Changes holds month-over-month percent changes.
type Changes struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}

type Summary struct {
	Month            string          `json:"month"`
	CurrentMonth     Totals          `json:"currentMonth"`
	PreviousMonth    Totals          `json:"previousMonth"`
	CategoryExpenses []CategoryTotal `json:"categoryExpenses"`
	MonthlyTrends    []MonthTrend    `json:"monthlyTrends"`
	Changes          Changes         `json:"changes"`
}

// Monthly builds the dashboard summary for the month containing ref.
func Monthly(txs []models.Transaction, categories []models.Category, ref time.Time) Summary {
	curKey := MonthKey(ref)
	prevKey := MonthKey(AddMonths(ref, -1))

	cur := WindowTotals(txs, curKey)
	prev := WindowTotals(txs, prevKey)

	trends := make([]MonthTrend, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		m := AddMonths(ref, -i)
		key := MonthKey(m)
		t := WindowTotals(txs, key)
		trends = append(trends, MonthTrend{
			Month:    m.Format("Jan"),
			Key:      key,
			Income:   t.Income,
			Expenses: t.Expenses,
		})
	}

	return Summary{
		Month:            curKey,
		CurrentMonth:     cur,
		PreviousMonth:    prev,
		CategoryExpenses: CategoryBreakdown(txs, categories, curKey),
		MonthlyTrends:    trends,
		Changes: Changes{
			Income:   PercentChange(cur.Income, prev.Income),
			Expenses: PercentChange(cur.Expenses, prev.Expenses),
			Balance:  PercentChange(cur.Balance, prev.Balance),
		},
	}
}

// WindowTotals sums income and expenses of transactions whose date starts with key.
func WindowTotals(txs []models.Transaction, key string) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for i := range txs {
		tx := &txs[i]
		if !inMonth(tx.Date, key) {
			continue
		}
		switch tx.Type {
		case models.TypeIncome:
			income = income.Add(tx.Amount)
		case models.TypeExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}
	return Totals{Income: income, Expenses: expenses, Balance: income.Sub(expenses)}
}

// CategoryBreakdown groups the expenses of month key by category, largest first.
func CategoryBreakdown(txs []models.Transaction, categories []models.Category, key string) []CategoryTotal {
	byID := indexCategories(categories)

	sums := make(map[uint]decimal.Decimal)
	for i := range txs {
		tx := &txs[i]
		if tx.Type != models.TypeExpense || !inMonth(tx.Date, key) {
			continue
		}
		sums[tx.CategoryID] = sums[tx.CategoryID].Add(tx.Amount)
	}

	out := make([]CategoryTotal, 0, len(sums))
	for id, total := range sums {
		ct := CategoryTotal{CategoryID: id, Name: UnknownCategoryName, Color: UnknownCategoryColor, Total: total}
		if c, ok := byID[id]; ok {
			ct.Name, ct.Color = c.Name, c.Color
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out
}

func indexCategories(categories []models.Category) map[uint]*models.Category {
	byID := make(map[uint]*models.Category, len(categories))
	for i := range categories {
		byID[categories[i].ID] = &categories[i]
	}
	return byID
}

// OverallTotals sums every transaction regardless of date.
func OverallTotals(txs []models.Transaction) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for i := range txs {
		switch txs[i].Type {
		case models.TypeIncome:
			income = income.Add(txs[i].Amount)
		case models.TypeExpense:
			expenses = expenses.Add(txs[i].Amount)
		}
	}
	return Totals{Income: income, Expenses: expenses, Balance: income.Sub(expenses)}
}
