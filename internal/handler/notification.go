package handler

import (
	"net/http"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/notify"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationHandler 负责预算提醒接口
type NotificationHandler struct {
	DB        *gorm.DB
	Scheduler *notify.Scheduler
}

func NewNotificationHandler(db *gorm.DB, scheduler *notify.Scheduler) *NotificationHandler {
	return &NotificationHandler{DB: db, Scheduler: scheduler}
}

// List 返回最新的提醒，?unread=true 只看未读
func (h *NotificationHandler) List(c *gin.Context, auth *middleware.AuthContext) {
	query := h.DB.Where("user_id = ?", auth.UserID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var list []models.Notification
	if err := query.Order("created_at DESC, id DESC").Limit(100).Find(&list).Error; err != nil {
		util.ServerError(c, "list notifications", err)
		return
	}

	var unread int64
	if err := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", auth.UserID, false).
		Count(&unread).Error; err != nil {
		util.ServerError(c, "count notifications", err)
		return
	}

	util.Success(c, util.Response{"notifications": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context, auth *middleware.AuthContext) {
	id, ok := paramID(c, "Notification not found")
	if !ok {
		return
	}
	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, auth.UserID).
		Update("read", true)
	if res.Error != nil {
		util.ServerError(c, "mark notification", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, "Notification not found")
		return
	}
	util.Success(c, util.Response{"message": "Notification marked as read"})
}

// Check 立即为当前用户检查预算和余额，返回新产生的提醒
func (h *NotificationHandler) Check(c *gin.Context, auth *middleware.AuthContext) {
	created, err := h.Scheduler.CheckUser(c.Request.Context(), auth.UserID)
	if err != nil {
		util.ServerError(c, "check notifications", err)
		return
	}
	if created == nil {
		created = []models.Notification{}
	}
	util.Success(c, util.Response{"notifications": created})
}
