package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/upload"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler 负责个人资料相关接口
type UserHandler struct {
	DB         *gorm.DB
	Uploads    *upload.Store
	BcryptCost int
}

func NewUserHandler(db *gorm.DB, uploads *upload.Store, bcryptCost int) *UserHandler {
	return &UserHandler{DB: db, Uploads: uploads, BcryptCost: bcryptCost}
}

// UpdateProfileReq 更新基本资料请求
type UpdateProfileReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Theme string `json:"theme"`
}

// ChangePasswordReq 修改密码请求
type ChangePasswordReq struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=72"`
}

func (h *UserHandler) load(c *gin.Context, userID uint) (*models.User, bool) {
	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "User not found")
		} else {
			util.ServerError(c, "find user", err)
		}
		return nil, false
	}
	return &user, true
}

// UpdateProfile 更新姓名、邮箱和主题
func (h *UserHandler) UpdateProfile(c *gin.Context, auth *middleware.AuthContext) {
	var req UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		util.Error(c, http.StatusBadRequest, "Name and email are required")
		return
	}

	user, ok := h.load(c, auth.UserID)
	if !ok {
		return
	}

	theme := user.Theme
	if req.Theme != "" {
		if err := util.ValidateTheme(req.Theme); err != nil {
			util.Error(c, http.StatusBadRequest, "Theme must be light or dark")
			return
		}
		theme = req.Theme
	}

	if req.Email != user.Email {
		var count int64
		if err := h.DB.Model(&models.User{}).
			Where("email = ? AND id <> ?", req.Email, user.ID).
			Count(&count).Error; err != nil {
			util.ServerError(c, "count users", err)
			return
		}
		if count > 0 {
			util.Error(c, http.StatusBadRequest, "Email already in use")
			return
		}
	}

	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"name":  req.Name,
		"email": req.Email,
		"theme": theme,
	}).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.Error(c, http.StatusBadRequest, "Email already in use")
			return
		}
		util.ServerError(c, "update profile", err)
		return
	}
	user.Name, user.Email, user.Theme = req.Name, req.Email, theme

	util.Success(c, util.Response{"user": user})
}

// ChangePassword 修改当前用户密码
func (h *UserHandler) ChangePassword(c *gin.Context, auth *middleware.AuthContext) {
	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "New password must be 6-72 characters")
		return
	}

	user, ok := h.load(c, auth.UserID)
	if !ok {
		return
	}

	if !util.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		util.Error(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}

	hash, err := util.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		util.ServerError(c, "hash password", err)
		return
	}
	if err := h.DB.Model(user).Update("password_hash", hash).Error; err != nil {
		util.ServerError(c, "update password", err)
		return
	}

	util.Success(c, util.Response{"message": "Password updated"})
}

// UploadAvatar 上传头像并更新 profile_picture
func (h *UserHandler) UploadAvatar(c *gin.Context, auth *middleware.AuthContext) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		util.Error(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	user, ok := h.load(c, auth.UserID)
	if !ok {
		return
	}

	url, err := h.Uploads.Save(fh, "avatar")
	if err != nil {
		if !uploadError(c, err) {
			util.ServerError(c, "save avatar", err)
		}
		return
	}

	old := user.ProfilePicture
	if err := h.DB.Model(user).Update("profile_picture", url).Error; err != nil {
		_ = h.Uploads.Remove(url)
		util.ServerError(c, "update avatar", err)
		return
	}
	user.ProfilePicture = url

	if err := h.Uploads.Remove(old); err != nil {
		slog.WarnContext(c.Request.Context(), "Remove old avatar failed", "error", err, "user_id", user.ID)
	}

	util.Success(c, util.Response{"user": user})
}
