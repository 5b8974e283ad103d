package database

import (
	"fmt"

	"expense-tracker/internal/models"

	"gorm.io/gorm"
)

// DefaultCategories are the shared categories every user sees.
var DefaultCategories = []models.Category{
	{Name: "Salary", Type: models.TypeIncome, Icon: "DollarSign", Color: "#10B981"},
	{Name: "Freelance", Type: models.TypeIncome, Icon: "Briefcase", Color: "#3B82F6"},
	{Name: "Investment", Type: models.TypeIncome, Icon: "TrendingUp", Color: "#8B5CF6"},
	{Name: "Food & Dining", Type: models.TypeExpense, Icon: "Coffee", Color: "#F97316"},
	{Name: "Rent & Utilities", Type: models.TypeExpense, Icon: "Home", Color: "#EF4444"},
	{Name: "Transportation", Type: models.TypeExpense, Icon: "Car", Color: "#06B6D4"},
	{Name: "Shopping", Type: models.TypeExpense, Icon: "ShoppingBag", Color: "#EC4899"},
	{Name: "Entertainment", Type: models.TypeExpense, Icon: "Film", Color: "#84CC16"},
	{Name: "Healthcare", Type: models.TypeExpense, Icon: "Heart", Color: "#F59E0B"},
	{Name: "Travel", Type: models.TypeExpense, Icon: "Plane", Color: "#6366F1"},
}

// SeedDefaultCategories inserts the default categories when no global
// category exists yet. It reports whether anything was inserted.
func SeedDefaultCategories(db *gorm.DB) (bool, error) {
	seeded := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Category{}).Where("user_id IS NULL").Count(&count).Error; err != nil {
			return fmt.Errorf("count default categories: %w", err)
		}
		if count > 0 {
			return nil
		}

		rows := make([]models.Category, len(DefaultCategories))
		copy(rows, DefaultCategories)
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert default categories: %w", err)
		}
		seeded = true
		return nil
	})
	return seeded, err
}
