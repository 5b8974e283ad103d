package router

import (
	"net/http"

	"expense-tracker/internal/config"
	"expense-tracker/internal/handler"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/notify"
	"expense-tracker/internal/upload"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UploadsPrefix 是上传文件对外的 URL 前缀
const UploadsPrefix = "/uploads"

// SetupRouter configures the Gin engine, static uploads and the REST API.
func SetupRouter(cfg *config.Config, db *gorm.DB, scheduler *notify.Scheduler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), corsMiddleware(cfg.Server.AllowedOrigins))

	// 上传的收据和头像
	r.Static(UploadsPrefix, cfg.Upload.Dir)

	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ====== API ======
	api := r.Group("/api")
	jwtSecret := cfg.JWT.Secret
	uploads := upload.NewStore(cfg.Upload.Dir, UploadsPrefix, cfg.Upload.MaxBytes)

	// 注册/登录接口（不需要鉴权）
	authHandler := handler.NewAuthHandler(db, cfg.JWT, cfg.Security.BcryptCost)
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/signin", authHandler.Signin)

	// 需要登录才能访问的接口
	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret),
		middleware.AuditMiddleware(db, cfg.Security.EncryptionKey),
	)
	auth := middleware.WithAuth

	protected.GET("/auth/me", auth(authHandler.Me))
	protected.POST("/auth/signout", auth(authHandler.Signout))

	userHandler := handler.NewUserHandler(db, uploads, cfg.Security.BcryptCost)
	protected.PUT("/users/profile", auth(userHandler.UpdateProfile))
	protected.PUT("/users/password", auth(userHandler.ChangePassword))
	protected.POST("/users/avatar", auth(userHandler.UploadAvatar))

	categoryHandler := handler.NewCategoryHandler(db)
	protected.GET("/categories", auth(categoryHandler.List))
	protected.POST("/categories", auth(categoryHandler.Create))

	txHandler := handler.NewTransactionHandler(db, uploads)
	protected.GET("/transactions", auth(txHandler.List))
	protected.POST("/transactions", auth(txHandler.Create))
	protected.PUT("/transactions/:id", auth(txHandler.Update))
	protected.DELETE("/transactions/:id", auth(txHandler.Delete))

	budgetHandler := handler.NewBudgetHandler(db, nil)
	protected.GET("/budgets", auth(budgetHandler.List))
	protected.GET("/budgets/progress", auth(budgetHandler.Progress))
	protected.POST("/budgets", auth(budgetHandler.Create))
	protected.PUT("/budgets/:id", auth(budgetHandler.Update))
	protected.DELETE("/budgets/:id", auth(budgetHandler.Delete))

	statsHandler := handler.NewStatsHandler(db, nil)
	protected.GET("/stats", auth(statsHandler.Summary))
	protected.GET("/stats/calendar", auth(statsHandler.Calendar))
	protected.GET("/stats/trends.png", auth(statsHandler.TrendsPNG))
	protected.GET("/stats/categories.png", auth(statsHandler.CategoriesPNG))

	exportHandler := handler.NewExportHandler(db, nil)
	protected.GET("/export/csv", auth(exportHandler.ExportCSV))
	protected.GET("/export/xlsx", auth(exportHandler.ExportXLSX))

	notificationHandler := handler.NewNotificationHandler(db, scheduler)
	protected.GET("/notifications", auth(notificationHandler.List))
	protected.PUT("/notifications/:id/read", auth(notificationHandler.MarkRead))
	protected.POST("/notifications/check", auth(notificationHandler.Check))

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey)
	protected.GET("/logs", auth(logHandler.ListLogs))

	backupHandler := handler.NewBackupHandler(db, cfg.Security.EncryptionKey, cfg.Backup.Dir, nil)
	protected.POST("/backups", auth(backupHandler.CreateBackup))
	protected.GET("/backups", auth(backupHandler.ListBackups))
	protected.GET("/backups/:id/download", auth(backupHandler.DownloadBackup))
	protected.POST("/backups/:id/restore", auth(backupHandler.RestoreBackup))
	protected.DELETE("/backups/:id", auth(backupHandler.DeleteBackup))

	return r
}

// corsMiddleware 允许 SPA 跨域访问；未配置来源时放行所有来源
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
