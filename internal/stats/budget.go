package stats

import (
	"time"

	"expense-tracker/internal/models"

	"github.com/shopspring/decimal"
)

const (
	StatusOnTrack = "on_track"
	StatusWarning = "warning"
	StatusOver    = "over"
)

// CategoryRef is the category shown next to a budget.
type CategoryRef struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Type  string `json:"type"`
}

// BudgetProgress is one budget with its spending for the budget month.
type BudgetProgress struct {
	ID         uint            `json:"id"`
	CategoryID uint            `json:"category_id"`
	Month      string          `json:"month"`
	Amount     decimal.Decimal `json:"amount"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
	Status     string          `json:"status"`
	Category   CategoryRef     `json:"category"`
}

// BudgetTotals aggregates all listed budgets.
type BudgetTotals struct {
	TotalBudget    decimal.Decimal `json:"totalBudget"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	TotalRemaining decimal.Decimal `json:"totalRemaining"`
}

type BudgetOverview struct {
	Budgets []BudgetProgress `json:"budgets"`
	Totals  BudgetTotals     `json:"totals"`
}

// Progress computes spending against one budget. A transaction counts when it
// is an expense of the budget's category whose parsed date falls in the same
// year and month as the budget. Unparseable dates or months never count.
func Progress(b models.Budget, txs []models.Transaction) BudgetProgress {
	spent := decimal.Zero
	if month, ok := ParseMonth(b.Month); ok {
		for i := range txs {
			tx := &txs[i]
			if tx.Type != models.TypeExpense || tx.CategoryID != b.CategoryID {
				continue
			}
			d, ok := parseDate(tx.Date)
			if !ok || d.Year() != month.Year() || d.Month() != month.Month() {
				continue
			}
			spent = spent.Add(tx.Amount)
		}
	}

	pct := Percentage(spent, b.Amount)
	return BudgetProgress{
		ID:         b.ID,
		CategoryID: b.CategoryID,
		Month:      b.Month,
		Amount:     b.Amount,
		Spent:      spent,
		Remaining:  b.Amount.Sub(spent),
		Percentage: pct,
		Status:     Status(pct),
	}
}

// Percentage is spent/amount*100, or 0 when amount is not positive.
func Percentage(spent, amount decimal.Decimal) float64 {
	if !amount.IsPositive() {
		return 0
	}
	return spent.Div(amount).Mul(hundred).InexactFloat64()
}

// Status classifies a budget percentage.
func Status(pct float64) string {
	switch {
	case pct >= 100:
		return StatusOver
	case pct >= 80:
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

// Summarize computes progress for every budget, duplicates included, and the totals.
func Summarize(budgets []models.Budget, categories []models.Category, txs []models.Transaction) BudgetOverview {
	byID := indexCategories(categories)

	out := BudgetOverview{
		Budgets: make([]BudgetProgress, 0, len(budgets)),
		Totals:  BudgetTotals{TotalBudget: decimal.Zero, TotalSpent: decimal.Zero},
	}
	for _, b := range budgets {
		p := Progress(b, txs)
		p.Category = CategoryRef{
			Name:  UnknownCategoryName,
			Color: UnknownCategoryColor,
			Icon:  UnknownCategoryIcon,
			Type:  models.TypeExpense,
		}
		if c, ok := byID[b.CategoryID]; ok {
			p.Category = CategoryRef{Name: c.Name, Color: c.Color, Icon: c.Icon, Type: c.Type}
		}
		out.Budgets = append(out.Budgets, p)
		out.Totals.TotalBudget = out.Totals.TotalBudget.Add(p.Amount)
		out.Totals.TotalSpent = out.Totals.TotalSpent.Add(p.Spent)
	}
	out.Totals.TotalRemaining = out.Totals.TotalBudget.Sub(out.Totals.TotalSpent)
	return out
}

func parseDate(s string) (time.Time, bool) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
