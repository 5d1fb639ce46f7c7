// Package property 提供房源管理相关的 HTTP Handler
package property

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/handler"
	"github.com/repavi/lodges-backend/internal/common/response"
	propertyService "github.com/repavi/lodges-backend/internal/service/property"
)

// Handler 房源处理器
type Handler struct {
	propertyService *propertyService.Service
}

// NewHandler 创建房源处理器
func NewHandler(propertySvc *propertyService.Service) *Handler {
	return &Handler{
		propertyService: propertySvc,
	}
}

// List 获取房源列表
// @Summary 获取房源列表
// @Tags 房源
// @Produce json
// @Security Bearer
// @Param name query string false "名称"
// @Param occupancy_status query string false "房态"
// @Param min_capacity query int false "最少可住人数"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/properties [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	minCapacity := 0
	if v := c.Query("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.BadRequest(c, "无效的可住人数")
			return
		}
		minCapacity = n
	}

	filter := propertyService.ListFilter{
		Name:            c.Query("name"),
		OccupancyStatus: c.Query("occupancy_status"),
		MinCapacity:     minCapacity,
	}
	page := handler.BindPagination(c)

	list, total, err := h.propertyService.List(c.Request.Context(), actor, filter, page)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// Get 获取房源详情
// @Summary 获取房源详情
// @Tags 房源
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /api/v1/properties/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	result, err := h.propertyService.Get(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// SetOverride 设置单日覆盖
// @Summary 设置单日封锁或特价
// @Tags 房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param request body propertyService.OverrideRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.AvailabilityOverride}
// @Router /api/v1/properties/{id}/overrides [put]
func (h *Handler) SetOverride(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	var req propertyService.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.propertyService.SetOverride(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, result)
}

// ListOverrides 获取区间内的覆盖设置
// @Summary 获取区间内的覆盖设置
// @Tags 房源
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param start_date query string true "开始日期"
// @Param end_date query string true "结束日期"
// @Success 200 {object} response.Response{data=[]models.AvailabilityOverride}
// @Router /api/v1/properties/{id}/overrides [get]
func (h *Handler) ListOverrides(c *gin.Context) {
	id, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}
	start, end, ok := handler.ParseRequiredQueryDateRange(c)
	if !ok {
		return
	}

	result, err := h.propertyService.ListOverrides(c.Request.Context(), id, start, end)
	handler.MustSucceed(c, err, result)
}

// ReservationStats 房源预订状态统计
// @Summary 房源预订状态统计
// @Tags 房源
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/properties/{id}/stats [get]
func (h *Handler) ReservationStats(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	result, err := h.propertyService.ReservationStats(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// CleaningTasks 某天的清洁任务
// @Summary 某天的清洁任务
// @Tags 房源
// @Produce json
// @Security Bearer
// @Param date query string true "日期"
// @Success 200 {object} response.Response{data=[]models.CleaningTask}
// @Router /api/v1/cleaning-tasks [get]
func (h *Handler) CleaningTasks(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}
	date, ok := handler.ParseQueryDate(c, "date")
	if !ok {
		return
	}
	if date == nil {
		response.BadRequest(c, "请指定日期")
		return
	}

	result, err := h.propertyService.CleaningTasks(c.Request.Context(), actor, *date)
	handler.MustSucceed(c, err, result)
}

// BlockPeriod 封锁日期段
// @Summary 封锁日期段
// @Tags 房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param request body propertyService.PeriodRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/properties/{id}/block [post]
func (h *Handler) BlockPeriod(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	var req propertyService.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	count, err := h.propertyService.BlockPeriod(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, gin.H{"blocked": count})
}

// FreePeriod 解除日期段封锁
// @Summary 解除日期段封锁
// @Tags 房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param request body propertyService.PeriodRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /api/v1/properties/{id}/free [post]
func (h *Handler) FreePeriod(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	var req propertyService.PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	count, err := h.propertyService.FreePeriod(c.Request.Context(), actor, id, &req)
	handler.MustSucceed(c, err, gin.H{"freed": count})
}

// SwitchRequest 开关请求
type SwitchRequest struct {
	On *bool `json:"on" binding:"required"`
}

// SetMaintenance 开启或结束维护
// @Summary 开启或结束维护
// @Tags 房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param request body SwitchRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /api/v1/properties/{id}/maintenance [put]
func (h *Handler) SetMaintenance(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.propertyService.SetMaintenance(c.Request.Context(), actor, id, *req.On)
	handler.MustSucceed(c, err, result)
}

// SetListed 上架或下架房源
// @Summary 上架或下架房源
// @Tags 房源
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param request body SwitchRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Property}
// @Router /api/v1/properties/{id}/listed [put]
func (h *Handler) SetListed(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}

	var req SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.propertyService.SetListed(c.Request.Context(), actor, id, *req.On)
	handler.MustSucceed(c, err, result)
}
