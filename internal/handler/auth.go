package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"expense-tracker/internal/config"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthHandler 负责注册/登录/退出相关接口
type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

// NewAuthHandler 构造函数
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, bcryptCost int) *AuthHandler {
	ttl := jwtCfg.TokenTTL()
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthHandler{
		DB:         db,
		JWTSecret:  jwtCfg.Secret,
		Issuer:     jwtCfg.Issuer,
		TokenTTL:   ttl,
		BcryptCost: bcryptCost,
	}
}

// ---------- 注册 ----------

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "All fields are required")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		util.Error(c, http.StatusBadRequest, "All fields are required")
		return
	}

	// 邮箱区分大小写，精确匹配
	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		util.ServerError(c, "count users", err)
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, "User already exists")
		return
	}

	hash, err := util.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		util.ServerError(c, "hash password", err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Theme:        models.ThemeLight,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.Error(c, http.StatusBadRequest, "User already exists")
			return
		}
		util.ServerError(c, "create user", err)
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		util.ServerError(c, "issue token", err)
		return
	}

	util.Created(c, util.Response{
		"user":  user,
		"token": token,
	})
}

// ---------- 登录 ----------

type signinReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var req signinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid credentials")
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusBadRequest, "Invalid credentials")
		} else {
			util.ServerError(c, "find user", err)
		}
		return
	}

	if !util.CheckPassword(req.Password, user.PasswordHash) {
		util.Error(c, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := h.issueToken(user.ID)
	if err != nil {
		util.ServerError(c, "issue token", err)
		return
	}

	util.Success(c, util.Response{
		"user":  user,
		"token": token,
	})
}

// issueToken 创建会话记录并签发 JWT，会话 ID 写入 jti
func (h *AuthHandler) issueToken(userID uint) (string, error) {
	sessionID := uuid.New().String()
	token, expiresAt, err := util.GenerateToken(h.JWTSecret, h.Issuer, userID, sessionID, h.TokenTTL)
	if err != nil {
		return "", err
	}
	sess := models.Session{ID: sessionID, UserID: userID, ExpiresAt: expiresAt}
	if err := h.DB.Create(&sess).Error; err != nil {
		return "", err
	}
	return token, nil
}

// ---------- 退出 ----------

// Signout revokes the caller's session. The token itself stays valid until it
// expires; the session only drives background notifications.
func (h *AuthHandler) Signout(c *gin.Context, auth *middleware.AuthContext) {
	if auth.SessionID != "" {
		if err := h.DB.Model(&models.Session{}).
			Where("id = ? AND user_id = ?", auth.SessionID, auth.UserID).
			Update("revoked", true).Error; err != nil {
			util.ServerError(c, "revoke session", err)
			return
		}
	}
	util.Success(c, util.Response{"message": "Signed out"})
}

// Me 返回当前登录用户信息
func (h *AuthHandler) Me(c *gin.Context, auth *middleware.AuthContext) {
	var user models.User
	if err := h.DB.First(&user, auth.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, "User not found")
		} else {
			util.ServerError(c, "find user", err)
		}
		return
	}
	util.Success(c, util.Response{"user": user})
}
