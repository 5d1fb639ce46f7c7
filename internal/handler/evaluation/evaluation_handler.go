// Package evaluation 提供住宿评价相关的 HTTP Handler
package evaluation

import (
	"github.com/gin-gonic/gin"

	"github.com/repavi/lodges-backend/internal/common/handler"
	"github.com/repavi/lodges-backend/internal/common/response"
	"github.com/repavi/lodges-backend/internal/middleware"
	evaluationService "github.com/repavi/lodges-backend/internal/service/evaluation"
)

// Handler 评价处理器
type Handler struct {
	evaluationService *evaluationService.Service
}

// NewHandler 创建评价处理器
func NewHandler(evaluationSvc *evaluationService.Service) *Handler {
	return &Handler{
		evaluationService: evaluationSvc,
	}
}

// Create 提交评价
// @Summary 提交住宿评价
// @Tags 评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "预订ID"
// @Param request body evaluationService.CreateRequest true "请求参数"
// @Success 201 {object} response.Response{data=models.Evaluation}
// @Router /api/v1/reservations/{id}/evaluation [post]
func (h *Handler) Create(c *gin.Context) {
	actor, reservationID, ok := handler.RequireActorAndParseID(c, "预订")
	if !ok {
		return
	}

	var req evaluationService.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.evaluationService.Create(c.Request.Context(), actor, reservationID, &req)
	if handler.HandleError(c, err) {
		return
	}
	response.Created(c, result)
}

// ModerateRequest 审核请求
type ModerateRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Reason   string `json:"reason" binding:"max=255"`
}

// Moderate 审核评价
// @Summary 审核评价
// @Tags 评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body ModerateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Evaluation}
// @Router /api/v1/evaluations/{id}/moderate [post]
func (h *Handler) Moderate(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "评价")
	if !ok {
		return
	}

	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.evaluationService.Moderate(c.Request.Context(), actor, id, *req.Approved, req.Reason)
	handler.MustSucceed(c, err, result)
}

// RespondRequest 回复请求
type RespondRequest struct {
	Response string `json:"response" binding:"required,max=1000"`
}

// Respond 回复评价
// @Summary 回复评价
// @Tags 评价
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "评价ID"
// @Param request body RespondRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Evaluation}
// @Router /api/v1/evaluations/{id}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	actor, id, ok := handler.RequireActorAndParseID(c, "评价")
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.evaluationService.Respond(c.Request.Context(), actor, id, req.Response)
	handler.MustSucceed(c, err, result)
}

// ListByProperty 房源评价列表
// @Summary 房源评价列表
// @Tags 评价
// @Produce json
// @Param id path int true "房源ID"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/properties/{id}/evaluations [get]
func (h *Handler) ListByProperty(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}
	// 匿名访问时操作者为空，仅返回已审核评价
	actor, _ := middleware.GetActor(c)
	page := handler.BindPagination(c)

	list, total, err := h.evaluationService.ListByProperty(c.Request.Context(), actor, propertyID, page)
	handler.MustSucceedPage(c, err, list, total, page.Page, page.PageSize)
}

// PropertyRating 房源评分
// @Summary 房源评分
// @Tags 评价
// @Produce json
// @Param id path int true "房源ID"
// @Success 200 {object} response.Response{data=repository.RatingStats}
// @Router /api/v1/properties/{id}/rating [get]
func (h *Handler) PropertyRating(c *gin.Context) {
	propertyID, ok := handler.ParseID(c, "房源")
	if !ok {
		return
	}

	result, err := h.evaluationService.PropertyRating(c.Request.Context(), propertyID)
	handler.MustSucceed(c, err, result)
}
