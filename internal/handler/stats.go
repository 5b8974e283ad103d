package handler

import (
	"errors"
	"net/http"
	"time"

	"expense-tracker/internal/chart"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/stats"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StatsHandler 负责仪表盘统计接口
type StatsHandler struct {
	DB  *gorm.DB
	Now Clock
}

func NewStatsHandler(db *gorm.DB, now Clock) *StatsHandler {
	return &StatsHandler{DB: db, Now: now}
}

// refMonth 读取 ?month=YYYY-MM，缺省为当前月份
func (h *StatsHandler) refMonth(c *gin.Context) (time.Time, bool) {
	month := c.Query("month")
	if month == "" {
		return h.Now.now(), true
	}
	ref, ok := stats.ParseMonth(month)
	if !ok {
		util.Error(c, http.StatusBadRequest, "Month must be YYYY-MM")
		return time.Time{}, false
	}
	return ref, true
}

// summary 载入趋势窗口内的交易并计算月度统计
func (h *StatsHandler) summary(userID uint, ref time.Time) (stats.Summary, error) {
	from := stats.MonthKey(stats.AddMonths(ref, -5))
	until := stats.MonthKey(stats.AddMonths(ref, 1))

	var txs []models.Transaction
	if err := h.DB.Where("user_id = ? AND date >= ? AND date < ?", userID, from, until).
		Find(&txs).Error; err != nil {
		return stats.Summary{}, err
	}
	categories, err := visibleCategories(h.DB, userID)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Monthly(txs, categories, ref), nil
}

// Summary GET /api/stats
func (h *StatsHandler) Summary(c *gin.Context, auth *middleware.AuthContext) {
	ref, ok := h.refMonth(c)
	if !ok {
		return
	}
	summary, err := h.summary(auth.UserID, ref)
	if err != nil {
		util.ServerError(c, "monthly stats", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Calendar GET /api/stats/calendar
func (h *StatsHandler) Calendar(c *gin.Context, auth *middleware.AuthContext) {
	ref, ok := h.refMonth(c)
	if !ok {
		return
	}
	key := stats.MonthKey(ref)

	var txs []models.Transaction
	if err := h.DB.Where("user_id = ? AND date LIKE ?", auth.UserID, key+"%").
		Find(&txs).Error; err != nil {
		util.ServerError(c, "calendar stats", err)
		return
	}

	util.Success(c, util.Response{"month": key, "days": stats.Calendar(txs, key)})
}

// TrendsPNG GET /api/stats/trends.png
func (h *StatsHandler) TrendsPNG(c *gin.Context, auth *middleware.AuthContext) {
	ref, ok := h.refMonth(c)
	if !ok {
		return
	}
	summary, err := h.summary(auth.UserID, ref)
	if err != nil {
		util.ServerError(c, "monthly stats", err)
		return
	}
	png, err := chart.RenderTrends(summary.MonthlyTrends)
	if err != nil {
		util.ServerError(c, "render trends", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// CategoriesPNG GET /api/stats/categories.png，当月没有支出时返回 404
func (h *StatsHandler) CategoriesPNG(c *gin.Context, auth *middleware.AuthContext) {
	ref, ok := h.refMonth(c)
	if !ok {
		return
	}
	summary, err := h.summary(auth.UserID, ref)
	if err != nil {
		util.ServerError(c, "monthly stats", err)
		return
	}
	png, err := chart.RenderCategories(summary.CategoryExpenses)
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			util.Error(c, http.StatusNotFound, "No expenses this month")
			return
		}
		util.ServerError(c, "render categories", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
