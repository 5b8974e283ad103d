// Package notify turns budget and balance conditions into stored notifications.
package notify

import (
	"fmt"

	"expense-tracker/internal/models"
	"expense-tracker/internal/stats"

	"github.com/shopspring/decimal"
)

// Thresholds configure when alerts fire.
type Thresholds struct {
	WarnPercent float64         // budget usage that triggers "almost full"
	LowBalance  decimal.Decimal // overall balance at or below which "low balance" fires
}

// Alert is an evaluated condition before it is stored.
type Alert struct {
	Kind     string
	Key      string
	Message  string
	Month    string
	BudgetID *uint
}

// Evaluate returns the alerts for one user's budgets of month and overall balance.
// Keys are stable for a (condition, month) pair so repeated checks can be deduplicated.
func Evaluate(overview stats.BudgetOverview, balance decimal.Decimal, month string, th Thresholds) []Alert {
	var alerts []Alert
	for _, b := range overview.Budgets {
		if b.Month != month || !b.Amount.IsPositive() {
			continue
		}
		id := b.ID
		switch {
		case b.Percentage >= 100:
			alerts = append(alerts, Alert{
				Kind:     models.NotifyBudgetExceeded,
				Key:      fmt.Sprintf("budget:%d:%s:exceeded", b.ID, month),
				Message:  fmt.Sprintf("Budget for %s exceeded!", b.Category.Name),
				Month:    month,
				BudgetID: &id,
			})
		case b.Percentage >= th.WarnPercent:
			alerts = append(alerts, Alert{
				Kind:     models.NotifyBudgetWarning,
				Key:      fmt.Sprintf("budget:%d:%s:warning", b.ID, month),
				Message:  fmt.Sprintf("Budget for %s is almost full (%.0f%%)", b.Category.Name, b.Percentage),
				Month:    month,
				BudgetID: &id,
			})
		}
	}

	if balance.LessThanOrEqual(th.LowBalance) {
		alerts = append(alerts, Alert{
			Kind:    models.NotifyLowBalance,
			Key:     "balance:" + month + ":low",
			Message: "Your account balance is low!",
			Month:   month,
		})
	}
	return alerts
}
