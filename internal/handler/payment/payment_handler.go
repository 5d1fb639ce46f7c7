// Package payment 提供支付相关的 HTTP Handler
package payment

import (
	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/handler"
	"github.com/repavi/lodges-backend/internal/common/response"
	paymentService "github.com/repavi/lodges-backend/internal/service/payment"
)

// Handler 支付处理器
type Handler struct {
	paymentService *paymentService.Service
}

// NewHandler 创建支付处理器
func NewHandler(paymentSvc *paymentService.Service) *Handler {
	return &Handler{
		paymentService: paymentSvc,
	}
}

// NotesRequest 备注请求
type NotesRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// RecordPayment 登记支付
// @Summary 登记支付
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body paymentService.RecordRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Payment}
// @Router /api/v1/payments [post]
func (h *Handler) RecordPayment(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req paymentService.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), actor, &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result)
}

// GetPayment 查询支付
// @Summary 查询支付
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /api/v1/payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "支付")
	if !ok {
		return
	}

	result, err := h.paymentService.Get(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// LedgerEntries 查询支付记账分录
// @Summary 查询支付记账分录
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Success 200 {object} response.Response{data=[]models.LedgerEntry}
// @Router /api/v1/payments/{id}/ledger [get]
func (h *Handler) LedgerEntries(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "支付")
	if !ok {
		return
	}

	result, err := h.paymentService.LedgerEntries(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// Validate 确认到账
// @Summary 确认到账
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Param request body paymentService.ValidateRequest false "请求参数"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /api/v1/payments/{id}/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "支付")
	if !ok {
		return
	}

	var req paymentService.ValidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return
		}
	}

	result, err := h.paymentService.Validate(c.Request.Context(), actor, id, req)
	handler.MustSucceed(c, err, result)
}

// MarkFailed 标记支付失败
// @Summary 标记支付失败
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Param request body NotesRequest false "备注"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /api/v1/payments/{id}/fail [post]
func (h *Handler) MarkFailed(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "支付")
	if !ok {
		return
	}

	req, ok := bindNotes(c)
	if !ok {
		return
	}

	result, err := h.paymentService.MarkFailed(c.Request.Context(), actor, id, req.Notes)
	handler.MustSucceed(c, err, result)
}

// Refund 退款
// @Summary 退款
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "支付ID"
// @Param request body NotesRequest false "备注"
// @Success 200 {object} response.Response{data=models.Payment}
// @Router /api/v1/payments/{id}/refund [post]
func (h *Handler) Refund(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "支付")
	if !ok {
		return
	}

	req, ok := bindNotes(c)
	if !ok {
		return
	}

	result, err := h.paymentService.Refund(c.Request.Context(), actor, id, req.Notes)
	handler.MustSucceed(c, err, result)
}

// Summary 预订收款汇总
// @Summary 预订收款汇总
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Success 200 {object} response.Response{data=paymentService.Summary}
// @Router /api/v1/reservations/{id}/payments [get]
func (h *Handler) Summary(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	result, err := h.paymentService.Summary(c.Request.Context(), actor, id)
	handler.MustSucceed(c, err, result)
}

// ListTypes 支付方式列表
// @Summary 支付方式列表
// @Tags 支付
// @Produce json
// @Success 200 {object} response.Response{data=[]models.PaymentType}
// @Router /api/v1/payment-types [get]
func (h *Handler) ListTypes(c *gin.Context) {
	result, err := h.paymentService.ListTypes(c.Request.Context())
	handler.MustSucceed(c, err, result)
}

// CreateType 新增支付方式
// @Summary 新增支付方式
// @Tags 支付
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body paymentService.CreateTypeRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.PaymentType}
// @Router /api/v1/payment-types [post]
func (h *Handler) CreateType(c *gin.Context) {
	actor, ok := handler.RequireActor(c)
	if !ok {
		return
	}

	var req paymentService.CreateTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.paymentService.CreateType(c.Request.Context(), actor, &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result)
}

// PropertyLedger 房源收支汇总
// @Summary 房源收支汇总
// @Tags 支付
// @Produce json
// @Security Bearer
// @Param id path int true "房源ID"
// @Param start_date query string true "开始日期"
// @Param end_date query string true "结束日期"
// @Success 200 {object} response.Response{data=paymentService.LedgerReport}
// @Router /api/v1/properties/{id}/ledger [get]
func (h *Handler) PropertyLedger(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "房源")
	if !ok {
		return
	}
	start, end, ok := handler.ParseRequiredQueryDateRange(c)
	if !ok {
		return
	}

	result, err := h.paymentService.PropertyLedger(c.Request.Context(), actor, id, start, end)
	handler.MustSucceed(c, err, result)
}

func bindNotes(c *gin.Context) (NotesRequest, bool) {
	var req NotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "参数错误")
			return req, false
		}
	}
	return req, true
}
