package handler

import (
	"errors"
	"net/http"
	"strings"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/stats"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BudgetHandler 负责月度预算接口
type BudgetHandler struct {
	DB  *gorm.DB
	Now Clock
}

func NewBudgetHandler(db *gorm.DB, now Clock) *BudgetHandler {
	return &BudgetHandler{DB: db, Now: now}
}

type budgetReq struct {
	CategoryID uint            `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Month      string          `json:"month"`
}

// BudgetView 附带分类信息的预算
type BudgetView struct {
	models.Budget
	CategoryName  string `json:"category_name"`
	CategoryColor string `json:"category_color"`
	CategoryIcon  string `json:"category_icon"`
}

func newBudgetView(b models.Budget) BudgetView {
	v := BudgetView{Budget: b}
	if b.Category != nil {
		v.CategoryName = b.Category.Name
		v.CategoryColor = b.Category.Color
		v.CategoryIcon = b.Category.Icon
	}
	return v
}

func (h *BudgetHandler) bind(c *gin.Context, userID uint) (*budgetReq, bool) {
	var req budgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}
	req.Month = strings.TrimSpace(req.Month)
	if req.CategoryID == 0 {
		util.Error(c, http.StatusBadRequest, "Category is required")
		return nil, false
	}
	if err := util.ValidateBudgetAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, "Amount must not be negative")
		return nil, false
	}
	if err := util.ValidateMonth(req.Month); err != nil {
		util.Error(c, http.StatusBadRequest, "Month must be YYYY-MM")
		return nil, false
	}
	if !checkCategory(c, h.DB, userID, req.CategoryID) {
		return nil, false
	}
	return &req, true
}

func (h *BudgetHandler) find(userID, id uint) (*models.Budget, error) {
	var b models.Budget
	err := h.DB.Preload("Category").
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (h *BudgetHandler) notFound(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusNotFound, "Budget not found")
		return
	}
	util.ServerError(c, "find budget", err)
}

// List 按月份倒序返回预算
func (h *BudgetHandler) List(c *gin.Context, auth *middleware.AuthContext) {
	var list []models.Budget
	if err := h.DB.Preload("Category").
		Where("user_id = ?", auth.UserID).
		Order("month DESC, id ASC").
		Find(&list).Error; err != nil {
		util.ServerError(c, "list budgets", err)
		return
	}

	views := make([]BudgetView, 0, len(list))
	for _, b := range list {
		views = append(views, newBudgetView(b))
	}
	util.Success(c, util.Response{"budgets": views})
}

// Create 新建预算；同一分类同一月份允许重复
func (h *BudgetHandler) Create(c *gin.Context, auth *middleware.AuthContext) {
	req, ok := h.bind(c, auth.UserID)
	if !ok {
		return
	}

	b := models.Budget{
		UserID:     auth.UserID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Month:      req.Month,
	}
	if err := h.DB.Create(&b).Error; err != nil {
		util.ServerError(c, "create budget", err)
		return
	}

	created, err := h.find(auth.UserID, b.ID)
	if err != nil {
		util.ServerError(c, "reload budget", err)
		return
	}
	util.Created(c, util.Response{"budget": newBudgetView(*created)})
}

func (h *BudgetHandler) Update(c *gin.Context, auth *middleware.AuthContext) {
	id, ok := paramID(c, "Budget not found")
	if !ok {
		return
	}
	if _, err := h.find(auth.UserID, id); err != nil {
		h.notFound(c, err)
		return
	}

	req, ok := h.bind(c, auth.UserID)
	if !ok {
		return
	}

	if err := h.DB.Model(&models.Budget{}).
		Where("id = ? AND user_id = ?", id, auth.UserID).
		Updates(map[string]interface{}{
			"category_id": req.CategoryID,
			"amount":      req.Amount,
			"month":       req.Month,
		}).Error; err != nil {
		util.ServerError(c, "update budget", err)
		return
	}

	updated, err := h.find(auth.UserID, id)
	if err != nil {
		util.ServerError(c, "reload budget", err)
		return
	}
	util.Success(c, util.Response{"budget": newBudgetView(*updated)})
}

func (h *BudgetHandler) Delete(c *gin.Context, auth *middleware.AuthContext) {
	id, ok := paramID(c, "Budget not found")
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, auth.UserID).Delete(&models.Budget{})
	if res.Error != nil {
		util.ServerError(c, "delete budget", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "Budget not found")
		return
	}

	util.Success(c, util.Response{"message": "Budget deleted successfully"})
}

// Progress 计算指定月份（默认当月）各预算的花费进度
func (h *BudgetHandler) Progress(c *gin.Context, auth *middleware.AuthContext) {
	month := c.Query("month")
	if month == "" {
		month = stats.MonthKey(h.Now.now())
	} else if err := util.ValidateMonth(month); err != nil {
		util.Error(c, http.StatusBadRequest, "Month must be YYYY-MM")
		return
	}

	var budgets []models.Budget
	if err := h.DB.Where("user_id = ? AND month = ?", auth.UserID, month).
		Order("id ASC").
		Find(&budgets).Error; err != nil {
		util.ServerError(c, "list budgets", err)
		return
	}

	categories, err := visibleCategories(h.DB, auth.UserID)
	if err != nil {
		util.ServerError(c, "list categories", err)
		return
	}

	var txs []models.Transaction
	if err := h.DB.Where("user_id = ? AND type = ? AND date LIKE ?", auth.UserID, models.TypeExpense, month+"%").
		Find(&txs).Error; err != nil {
		util.ServerError(c, "list transactions", err)
		return
	}

	overview := stats.Summarize(budgets, categories, txs)
	util.Success(c, util.Response{
		"month":   month,
		"budgets": overview.Budgets,
		"totals":  overview.Totals,
	})
}
