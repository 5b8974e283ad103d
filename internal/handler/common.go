package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/upload"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// paramID parses the :id path parameter. It writes a 404 and returns false
// when the id is not a positive integer, matching how a missing row looks.
func paramID(c *gin.Context, notFound string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.Error(c, http.StatusNotFound, notFound)
		return 0, false
	}
	return uint(id), true
}

// visibleCategory loads a category the user may reference: a global default
// or one the user owns.
func visibleCategory(db *gorm.DB, userID, categoryID uint) (*models.Category, error) {
	var cat models.Category
	err := db.Where("id = ? AND (user_id IS NULL OR user_id = ?)", categoryID, userID).First(&cat).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// visibleCategories returns global and owned categories.
func visibleCategories(db *gorm.DB, userID uint) ([]models.Category, error) {
	var list []models.Category
	err := db.Where("user_id IS NULL OR user_id = ?", userID).
		Order("name ASC, id ASC").
		Find(&list).Error
	return list, err
}

// uploadError maps upload store errors to a 400 response. It reports whether
// the error was handled.
func uploadError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		util.Error(c, http.StatusBadRequest, "File too large (max 5MB)")
	case errors.Is(err, upload.ErrNotImage):
		util.Error(c, http.StatusBadRequest, "Only image files are allowed")
	default:
		return false
	}
	return true
}

// pagination 读取 page / page_size 参数
func pagination(c *gin.Context, defSize int) (page, size, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defSize)))
	if size <= 0 || size > 100 {
		size = defSize
	}
	return page, size, (page - 1) * size
}

// Clock returns the current time; handlers take one so tests can pin "now".
type Clock func() time.Time

func (f Clock) now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}
