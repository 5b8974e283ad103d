package util

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 通用返回结构
type Response map[string]interface{}

// RequestIDKey 是 gin.Context 中保存请求 ID 的 key
const RequestIDKey = "request_id"

// Success 统一成功返回
func Success(c *gin.Context, data Response) {
	c.JSON(http.StatusOK, data)
}

// Created 创建成功返回 201
func Created(c *gin.Context, data Response) {
	c.JSON(http.StatusCreated, data)
}

// Error 统一错误返回，body 形如 {"error": "..."}
func Error(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{"error": msg})
}

// ServerError 记录真实错误，对外只返回通用信息
func ServerError(c *gin.Context, msg string, err error) {
	slog.ErrorContext(c.Request.Context(), msg,
		"error", err,
		"request_id", c.GetString(RequestIDKey),
		"method", c.Request.Method,
		"path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}
