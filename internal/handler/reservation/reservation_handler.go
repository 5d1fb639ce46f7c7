// Package reservation 提供预订相关的 HTTP Handler
package reservation

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/handler"
	"github.com/repavi/lodges-backend/internal/common/response"
	"github.com/repavi/lodges-backend/internal/common/utils"
	reservationService "github.com/repavi/lodges-backend/internal/service/reservation"
)

// Handler 预订处理器
type Handler struct {
	reservationService *reservationService.Service
}

// NewHandler 创建预订处理器
func NewHandler(reservationSvc *reservationService.Service) *Handler {
	return &Handler{
		reservationService: reservationSvc,
	}
}

// Create 创建预订
// @Summary 创建预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body reservationService.CreateRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req reservationService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.reservationService.Create(c.Request.Context(), actor, &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result)
}

// Get 获取预订详情
// @Summary 获取预订详情
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	result, err := h.reservationService.Get(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// History 获取预订操作记录
// @Summary 获取预订操作记录
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=[]models.OperationLog}
// @Router /api/v1/reservations/{id}/history [get]
func (h *Handler) History(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	result, err := h.reservationService.History(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// GetByCode 根据预订码获取预订
// @Summary 根据预订码获取预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param code path string true "预订码"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservation-codes/{code} [get]
func (h *Handler) GetByCode(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if code == "" {
		response.BadRequest(c, "预订码不能为空")
		return
	}

	result, err := h.reservationService.GetByCode(c.Request.Context(), actor, code)
	handler.MustSucceed(c, err, result)
}

// List 获取预订列表
// @Summary 获取预订列表
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param property_id query int false "房源ID"
// @Param status query string false "状态"
// @Param code query string false "预订码"
// @Param start_from query string false "入住日期起"
// @Param start_to query string false "入住日期止"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/reservations [get]
func (h *Handler) List(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	propertyID, ok := handler.ParseQueryID(c, "property_id", "房源")
	if !ok {
		return
	}
	startFrom, ok := handler.ParseQueryDate(c, "start_from")
	if !ok {
		return
	}
	startTo, ok := handler.ParseQueryDate(c, "start_to")
	if !ok {
		return
	}

	filter := reservationService.ListFilter{
		PropertyID: propertyID,
		Status:     c.Query("status"),
		Code:       c.Query("code"),
		StartFrom:  startFrom,
		StartTo:    startTo,
	}
	page := handler.BindPagination(c)

	list, total, err := h.reservationService.List(c.Request.Context(), actor, filter, page)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// Confirm 确认预订
// @Summary 确认预订
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id}/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	result, err := h.reservationService.Confirm(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// CancelRequest 取消预订请求
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// Cancel 取消预订
// @Summary 取消预订
// @Tags 预订
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body CancelRequest false "取消原因"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	result, err := h.reservationService.Cancel(c.Request.Context(), actor, id, req.Reason)
	handler.MustSucceed(c, err, result)
}

// Complete 完成预订
// @Summary 完成预订（退房）
// @Tags 预订
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=models.Reservation}
// @Router /api/v1/reservations/{id}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	result, err := h.reservationService.Complete(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// CheckInQRCode 获取入住二维码
// @Summary 获取入住二维码
// @Tags 预订
// @Produce png
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {file} binary
// @Router /api/v1/reservations/{id}/qrcode [get]
func (h *Handler) CheckInQRCode(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	png, err := h.reservationService.CheckInQRCode(c.Request.Context(), actor, id)
	if handler.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// QuoteRequest 报价请求
type QuoteRequest struct {
	StartDate      string  `json:"start_date" binding:"required"`
	EndDate        string  `json:"end_date" binding:"required"`
	DiscountAmount float64 `json:"discount_amount" binding:"min=0"`
	PaymentMode    string  `json:"payment_mode"`
}

// Quote 计算报价
// @Summary 计算住宿报价
// @Tags 预订
// @Accept json
// @Produce json
// @Param id path int true "房源ID"
// @Param request body QuoteRequest true "请求参数"
// @Success 200 {object} response.Response{data=reservationService.Quote}
// @Router /api/v1/properties/{id}/quote [post]
func (h *Handler) Quote(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.reservationService.Quote(c.Request.Context(), propertyID, req.StartDate, req.EndDate, req.DiscountAmount, req.PaymentMode)
	handler.MustSucceed(c, err, result)
}

// Calendar 获取房源月历
// @Summary 获取房源月历
// @Tags 预订
// @Produce json
// @Param id path int true "房源ID"
// @Param year query int true "年"
// @Param month query int true "月"
// @Success 200 {object} response.Response{data=[]reservationService.CalendarDay}
// @Router /api/v1/properties/{id}/calendar [get]
func (h *Handler) Calendar(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		response.BadRequest(c, "无效的年份")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(c, "无效的月份")
		return
	}

	result, err := h.reservationService.Calendar(c.Request.Context(), propertyID, year, month)
	handler.MustSucceed(c, err, result)
}

// AvailabilityResponse 可用性查询结果
type AvailabilityResponse struct {
	Available    bool     `json:"available"`
	BlockedDates []string `json:"blocked_dates"`
}

// CheckAvailability 查询日期段可用性
// @Summary 查询日期段可用性
// @Tags 预订
// @Produce json
// @Param id path int true "房源ID"
// @Param start_date query string true "入住日期"
// @Param end_date query string true "离店日期"
// @Success 200 {object} response.Response{data=AvailabilityResponse}
// @Router /api/v1/properties/{id}/availability [get]
func (h *Handler) CheckAvailability(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}
	start, end, ok := handler.ParseRequiredQueryDateRange(c)
	if !ok {
		return
	}
	if !end.After(start) {
		response.BadRequest(c, "离店日期必须晚于入住日期")
		return
	}

	ctx := c.Request.Context()
	checker := h.reservationService.Checker()

	free, err := checker.IsAvailable(ctx, propertyID, start, end, nil)
	if handler.HandleError(c, err) {
		return
	}
	blocked, err := checker.BlockedDates(ctx, propertyID, start, end)
	if handler.HandleError(c, err) {
		return
	}

	resp := AvailabilityResponse{
		Available:    free && len(blocked) == 0,
		BlockedDates: make([]string, 0, len(blocked)),
	}
	for _, d := range blocked {
		resp.BlockedDates = append(resp.BlockedDates, utils.FormatDate(d))
	}
	response.Success(c, resp)
}
