// Package handler 提供 API Handler 的通用辅助函数
// 统一错误处理、操作者获取、参数解析等操作
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/authz"
	"github.com/repavi/lodges-backend/internal/common/errors"
	"github.com/repavi/lodges-backend/internal/common/response"
	"github.com/repavi/lodges-backend/internal/common/utils"
	"github.com/repavi/lodges-backend/internal/middleware"
)

// ============================================================================
// 统一错误处理
// ============================================================================

// StatusOf 错误类别对应的 HTTP 状态码
func StatusOf(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindConflict, errors.KindIllegalTransition:
		return http.StatusConflict
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HandleError 处理错误并发送适当的响应
// 如果 err 为 nil，返回 false
// 如果 err 不为 nil，发送错误响应并返回 true，调用方应该 return
//
// 使用示例:
//
//	result, err := service.Confirm(ctx, actor, id)
//	if HandleError(c, err) {
//	    return
//	}
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	_ = c.Error(err)
	if errors.IsAppError(err) {
		// Message 不含底层错误，内部错误同样不会暴露细节
		appErr := errors.GetAppError(err)
		response.ErrorWithStatus(c, StatusOf(appErr.Kind()), appErr.Code, appErr.Message)
		return true
	}
	response.InternalError(c, "服务器内部错误")
	return true
}

// MustSucceed 如果有错误则返回错误响应，否则返回成功响应
func MustSucceed(c *gin.Context, err error, data interface{}) {
	if HandleError(c, err) {
		return
	}
	response.Success(c, data)
}

// MustSucceedPage 分页响应版本
func MustSucceedPage(c *gin.Context, err error, list interface{}, total int64, page, pageSize int) {
	if HandleError(c, err) {
		return
	}
	response.SuccessPage(c, list, total, page, pageSize)
}

// ============================================================================
// 操作者
// ============================================================================

// RequireActor 获取当前操作者，未认证时返回 401
func RequireActor(c *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok || actor.UserID == 0 {
		response.Unauthorized(c, "请先登录")
		return authz.Actor{}, false
	}
	return actor, true
}

// RequireActorAndParseID 组合：获取操作者 + 解析 ID 参数
func RequireActorAndParseID(c *gin.Context, resourceName string) (authz.Actor, int64, bool) {
	actor, ok := RequireActor(c)
	if !ok {
		return authz.Actor{}, 0, false
	}
	id, ok := ParseID(c, resourceName)
	if !ok {
		return authz.Actor{}, 0, false
	}
	return actor, id, true
}

// ============================================================================
// ID 参数解析
// ============================================================================

// ParseID 解析路径参数 "id" 为 int64，失败时已发送 400
func ParseID(c *gin.Context, resourceName string) (int64, bool) {
	return ParseParamID(c, "id", resourceName)
}

// ParseParamID 解析指定路径参数为 int64
func ParseParamID(c *gin.Context, paramName, resourceName string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return 0, false
	}
	return id, true
}

// ParseQueryID 解析查询参数中的可选 ID
// 参数为空返回 (nil, true)，解析失败返回 (nil, false)
func ParseQueryID(c *gin.Context, paramName, resourceName string) (*int64, bool) {
	idStr := c.Query(paramName)
	if idStr == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		response.BadRequest(c, "无效的"+resourceName+"ID")
		return nil, false
	}
	return &id, true
}

// ============================================================================
// 日期解析
// ============================================================================

// ParseQueryDate 从查询参数解析可选日期
func ParseQueryDate(c *gin.Context, paramName string) (*time.Time, bool) {
	dateStr := c.Query(paramName)
	if dateStr == "" {
		return nil, true
	}
	t, err := utils.ParseDate(dateStr)
	if err != nil {
		response.BadRequest(c, "无效的日期格式: "+paramName)
		return nil, false
	}
	return &t, true
}

// ParseRequiredQueryDateRange 解析必填的 start_date 与 end_date（按晚计，不含离店日）
func ParseRequiredQueryDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	startStr, endStr := c.Query("start_date"), c.Query("end_date")
	if startStr == "" || endStr == "" {
		response.BadRequest(c, "请指定开始和结束日期")
		return time.Time{}, time.Time{}, false
	}

	start, err := utils.ParseDate(startStr)
	if err != nil {
		response.BadRequest(c, "无效的开始日期格式")
		return time.Time{}, time.Time{}, false
	}
	end, err := utils.ParseDate(endStr)
	if err != nil {
		response.BadRequest(c, "无效的结束日期格式")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// ============================================================================
// 分页处理
// ============================================================================

// BindPagination 从查询参数绑定并规范化分页参数
// 默认 page=1, pageSize=10, 最大 pageSize=100
func BindPagination(c *gin.Context) utils.Pagination {
	var p utils.Pagination
	p.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	p.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p.Normalize()
	return p
}
