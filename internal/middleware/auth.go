package middleware

import (
	"net/http"
	"strings"
	"time"

	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

const authContextKey = "auth"

// AuthContext is the identity of the caller, derived from a verified token.
type AuthContext struct {
	UserID    uint
	SessionID string
	ExpiresAt time.Time
}

// AuthMiddleware 校验 JWT，把 AuthContext 放进 gin.Context。
// 鉴权是无状态的：只校验签名和过期时间，不查数据库。
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, "Access token required")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			util.Error(c, http.StatusForbidden, "Invalid token")
			c.Abort()
			return
		}

		c.Set(authContextKey, &AuthContext{
			UserID:    claims.UserID,
			SessionID: claims.ID,
			ExpiresAt: claims.ExpiresAt.Time,
		})
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	// 1) Header: Authorization: Bearer xxx
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	// 2) URL 查询参数 ?token=xxx（用于下载等无法自定义 Header 的场景）
	return c.Query("token")
}

// CurrentAuth returns the AuthContext set by AuthMiddleware.
func CurrentAuth(c *gin.Context) (*AuthContext, bool) {
	v, ok := c.Get(authContextKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*AuthContext)
	return a, ok && a != nil
}

// WithAuth adapts a handler that takes the caller identity explicitly.
func WithAuth(h func(*gin.Context, *AuthContext)) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, ok := CurrentAuth(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, "Access token required")
			c.Abort()
			return
		}
		h(c, auth)
	}
}
