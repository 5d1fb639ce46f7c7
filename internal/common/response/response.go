// Package response 提供统一的 API 响应格式
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response API 统一响应结构，code 为 0 表示成功
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据结构
type PageData struct {
	List     interface{} `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	HasMore  bool        `json:"has_more"`
}

const okMessage = "success"

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Message: okMessage, Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Message: okMessage, Data: data})
}

// SuccessPage 分页成功响应
func SuccessPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	Success(c, PageData{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasMore:  int64(page*pageSize) < total,
	})
}

// ErrorWithStatus 错误响应（指定 HTTP 状态码与业务码）
func ErrorWithStatus(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{Code: code, Message: message})
}

// statusError 业务码与 HTTP 状态码一致的错误响应
func statusError(c *gin.Context, status int, message, fallback string) {
	if message == "" {
		message = fallback
	}
	ErrorWithStatus(c, status, status, message)
}

// BadRequest 请求参数错误
func BadRequest(c *gin.Context, message string) {
	statusError(c, http.StatusBadRequest, message, "bad request")
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context, message string) {
	statusError(c, http.StatusUnauthorized, message, "unauthorized")
}

// Forbidden 禁止访问
func Forbidden(c *gin.Context, message string) {
	statusError(c, http.StatusForbidden, message, "forbidden")
}

// NotFound 资源不存在
func NotFound(c *gin.Context, message string) {
	statusError(c, http.StatusNotFound, message, "not found")
}

// InternalError 服务器内部错误
func InternalError(c *gin.Context, message string) {
	statusError(c, http.StatusInternalServerError, message, "internal server error")
}

// TooManyRequests 请求过于频繁
func TooManyRequests(c *gin.Context, message string) {
	statusError(c, http.StatusTooManyRequests, message, "too many requests")
}
