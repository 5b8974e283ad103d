package handler

import (
	"net/http"
	"strings"

	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler 负责分类接口
type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

type createCategoryReq struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// List 返回全局默认分类和用户自己的分类，按名称排序
func (h *CategoryHandler) List(c *gin.Context, auth *middleware.AuthContext) {
	list, err := visibleCategories(h.DB, auth.UserID)
	if err != nil {
		util.ServerError(c, "list categories", err)
		return
	}
	util.Success(c, util.Response{"categories": list})
}

func (h *CategoryHandler) Create(c *gin.Context, auth *middleware.AuthContext) {
	var req createCategoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateCategory(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, "Name is required (max 64 characters)")
		return
	}
	if err := util.ValidateType(req.Type); err != nil {
		util.Error(c, http.StatusBadRequest, "Type must be income or expense")
		return
	}
	if req.Icon = strings.TrimSpace(req.Icon); req.Icon == "" {
		req.Icon = models.DefaultCategoryIcon
	}
	if req.Color = strings.TrimSpace(req.Color); req.Color == "" {
		req.Color = models.DefaultCategoryColor
	} else if err := util.ValidateColor(req.Color); err != nil {
		util.Error(c, http.StatusBadRequest, "Color must be a hex value like #3B82F6")
		return
	}

	userID := auth.UserID
	cat := models.Category{
		UserID: &userID,
		Name:   req.Name,
		Type:   req.Type,
		Icon:   req.Icon,
		Color:  req.Color,
	}
	if err := h.DB.Create(&cat).Error; err != nil {
		util.ServerError(c, "create category", err)
		return
	}

	util.Created(c, util.Response{"category": cat})
}
