package middleware

import (
	"log/slog"
	"net/http"

	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware records mutating requests of signed-in users.
// 路径加密存储，请求体不落库。
func AuditMiddleware(db *gorm.DB, encryptKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		auth, ok := CurrentAuth(c)
		if !ok {
			return
		}

		encPath, err := util.EncryptString(encryptKey, c.Request.URL.Path)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "Encrypt audit path failed", "error", err)
			return
		}

		userID := auth.UserID
		entry := models.AuditLog{
			UserID:    &userID,
			Method:    c.Request.Method,
			PathEnc:   encPath,
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
			slog.WarnContext(c.Request.Context(), "Write audit log failed", "error", err, "user_id", userID)
		}
	}
}
