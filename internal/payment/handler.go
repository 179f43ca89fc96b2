package payment

import (
	"gymdesk/internal/api"
	"gymdesk/internal/auth"
	"gymdesk/internal/subscription"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	kind    subscription.Kind
}

func NewHandler(service Service, kind subscription.Kind) *Handler {
	return &Handler{service: service, kind: kind}
}

func (h *Handler) Register(g *gin.RouterGroup, staff gin.HandlerFunc) {
	g.GET("/:id/dues", staff, h.GetDues)
	g.POST("/payments", staff, h.Record)
	g.PUT("/payments/:paymentId/refund", staff, h.Refund)
}

// @Summary      Dues of a membership or training
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Subscription ID"
// @Success      200 {object} api.Response{data=payment.DuesView}
// @Failure      404 {object} api.Response
// @Router       /memberships/{id}/dues [get]
// @Router       /trainings/{id}/dues [get]
func (h *Handler) GetDues(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	dues, err := h.service.GetDues(c.Request.Context(), auth.GetOrgID(c), h.kind, id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, dues)
}

// @Summary      Record a payment
// @Description  Allowed on active, frozen and expired subscriptions while a due remains.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.RecordRequest true "Payment"
// @Success      201 {object} api.Response{data=payment.Receipt}
// @Failure      400 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /memberships/payments [post]
// @Router       /trainings/payments [post]
func (h *Handler) Record(c *gin.Context) {
	var req RecordRequest
	if !api.BindJSON(c, &req) {
		return
	}

	receipt, err := h.service.Record(c.Request.Context(), auth.GetOrgID(c), h.kind, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, receipt)
}

// @Summary      Refund a payment
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        paymentId path int true "Payment ID"
// @Success      200 {object} api.Response{data=payment.Payment}
// @Failure      409 {object} api.Response
// @Router       /memberships/payments/{paymentId}/refund [put]
// @Router       /trainings/payments/{paymentId}/refund [put]
func (h *Handler) Refund(c *gin.Context) {
	id, ok := api.ParamID(c, "paymentId")
	if !ok {
		return
	}

	p, err := h.service.Refund(c.Request.Context(), auth.GetOrgID(c), h.kind, id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Message(c, "payment refunded", p)
}
