package handler

import (
	"net/http"
	"strings"
	"time"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler 负责操作日志查询接口
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
}

func NewLogHandler(db *gorm.DB, encryptKey string) *LogHandler {
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// ListLogs 列出当前用户的操作日志（分页 + 时间 + method 筛选）
func (h *LogHandler) ListLogs(c *gin.Context, auth *middleware.AuthContext) {
	page, size, offset := pagination(c, 20)

	// 时间筛选：start / end（格式 YYYY-MM-DD）
	base := h.DB.Model(&models.AuditLog{}).Where("user_id = ?", auth.UserID)
	if startStr := c.Query("start"); startStr != "" {
		start, err := time.Parse(util.DateLayout, startStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "Start date must be YYYY-MM-DD")
			return
		}
		base = base.Where("created_at >= ?", start)
	}
	if endStr := c.Query("end"); endStr != "" {
		end, err := time.Parse(util.DateLayout, endStr)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "End date must be YYYY-MM-DD")
			return
		}
		base = base.Where("created_at < ?", end.Add(24*time.Hour))
	}
	if method := strings.ToUpper(strings.TrimSpace(c.Query("method"))); method != "" {
		base = base.Where("method = ?", method)
	}

	// 统计总数
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.ServerError(c, "count logs", err)
		return
	}

	// 查询分页列表
	var logs []models.AuditLog
	if err := base.
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset(offset).
		Find(&logs).Error; err != nil {
		util.ServerError(c, "list logs", err)
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, logResp{
			ID:        l.ID,
			Method:    l.Method,
			Path:      util.DecryptString(h.EncryptKey, l.PathEnc),
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
