package handler

import (
	"fmt"
	"net/http"

	"expense-tracker/internal/export"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ExportHandler 导出交易为 CSV / XLSX
type ExportHandler struct {
	DB  *gorm.DB
	Now Clock
}

func NewExportHandler(db *gorm.DB, now Clock) *ExportHandler {
	return &ExportHandler{DB: db, Now: now}
}

// load 解析导出参数并返回要写出的行，失败时已写出响应
func (h *ExportHandler) load(c *gin.Context, userID uint) (export.Options, [][]string, bool) {
	opts := export.Options{
		Range: c.Query("range"),
		Start: c.Query("start"),
		End:   c.Query("end"),
		Type:  c.Query("type"),
	}
	if err := opts.Validate(); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid export options")
		return opts, nil, false
	}

	var txs []models.Transaction
	if err := h.DB.Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Find(&txs).Error; err != nil {
		util.ServerError(c, "list transactions", err)
		return opts, nil, false
	}
	categories, err := visibleCategories(h.DB, userID)
	if err != nil {
		util.ServerError(c, "list categories", err)
		return opts, nil, false
	}
	names := make(map[uint]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}

	return opts, export.Rows(export.Filter(txs, opts, h.Now.now()), names), true
}

// ExportCSV GET /api/export/csv
func (h *ExportHandler) ExportCSV(c *gin.Context, auth *middleware.AuthContext) {
	opts, rows, ok := h.load(c, auth.UserID)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(opts, h.Now.now(), "csv")))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, rows); err != nil {
		// 响应头已写出，只能记录错误
		_ = c.Error(err)
	}
}

// ExportXLSX GET /api/export/xlsx
func (h *ExportHandler) ExportXLSX(c *gin.Context, auth *middleware.AuthContext) {
	opts, rows, ok := h.load(c, auth.UserID)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(opts, h.Now.now(), "xlsx")))
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, rows); err != nil {
		// 响应头已写出，只能记录错误
		_ = c.Error(err)
	}
}
