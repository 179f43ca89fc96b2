package enrollment

import (
	"net/http"

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

func (h *Handler) Register(g *gin.RouterGroup, writers gin.HandlerFunc) {
	g.POST("", writers, h.Enroll)
}

// @Summary      Enroll a member
// @Description  Creates a membership or training priced from the current catalog. End date and prices are computed by the server. A membership may carry a linked training and either may carry a first payment. Overlapping subscriptions are allowed and reported in warnings.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Replays the first response for retried requests"
// @Param        request body enrollment.Request true "Wizard state"
// @Success      201 {object} api.Response{data=enrollment.Result}
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Failure      422 {object} api.Response
// @Router       /memberships [post]
// @Router       /trainings [post]
func (h *Handler) Enroll(c *gin.Context) {
	var req Request
	if !api.BindJSON(c, &req) {
		return
	}

	res, err := h.service.Enroll(c.Request.Context(), auth.GetOrgID(c), h.kind, req)
	if err != nil {
		api.Fail(c, err)
		return
	}

	msg := string(h.kind) + " created"
	if len(res.Warnings) > 0 {
		msg += " with warnings"
	}
	c.JSON(http.StatusCreated, api.Response{Success: true, Data: res, Message: msg})
}
