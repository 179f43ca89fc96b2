package subscription

import (
	"strconv"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

// Handler serves one kind. The server mounts it twice, under /memberships
// and /trainings.
type Handler struct {
	service Service
	kind    Kind
}

func NewHandler(service Service, kind Kind) *Handler {
	return &Handler{service: service, kind: kind}
}

func (h *Handler) Register(g *gin.RouterGroup, staff gin.HandlerFunc) {
	g.GET("", staff, h.List)
	g.GET("/:id", staff, h.Get)
	g.PATCH("/:id", staff, h.Update)
	g.PUT("/:id/freeze", staff, h.Freeze)
	g.PUT("/:id/unfreeze", staff, h.Unfreeze)
	g.PUT("/:id/cancel", staff, h.Cancel)
}

// @Summary      List memberships or trainings
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        memberId  query int    false "Member ID"
// @Param        trainerId query int    false "Trainer ID (trainings)"
// @Param        status    query string false "active, frozen, cancelled or expired"
// @Param        page      query int    false "Page"  default(1)
// @Param        limit     query int    false "Limit" default(20)
// @Success      200 {object} api.Response{data=[]subscription.Subscription}
// @Router       /memberships [get]
// @Router       /trainings [get]
func (h *Handler) List(c *gin.Context) {
	page, limit := api.PageParams(c)
	f := Filter{
		MemberID:  queryInt(c, "memberId"),
		TrainerID: queryInt(c, "trainerId"),
		Status:    Status(c.Query("status")),
		Page:      page,
		Limit:     limit,
	}

	subs, total, err := h.service.List(c.Request.Context(), auth.GetOrgID(c), h.kind, f)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Paged(c, subs, api.NewPagination(page, limit, total))
}

// @Summary      Get a membership or training
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Subscription ID"
// @Success      200 {object} api.Response{data=subscription.Subscription}
// @Failure      404 {object} api.Response
// @Router       /memberships/{id} [get]
// @Router       /trainings/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := h.service.Get(c.Request.Context(), auth.GetOrgID(c), h.kind, id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, sub)
}

// @Summary      Edit dates, discount, autoRenew or notes
// @Description  Refused with 409 on cancelled or expired subscriptions.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Subscription ID"
// @Param        request body subscription.UpdateRequest true "Fields to change"
// @Success      200 {object} api.Response{data=subscription.Subscription}
// @Failure      409 {object} api.Response
// @Router       /memberships/{id} [patch]
// @Router       /trainings/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	sub, err := h.service.Update(c.Request.Context(), auth.GetOrgID(c), h.kind, id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, sub)
}

// @Summary      Freeze
// @Tags         subscriptions
// @Security     BearerAuth
// @Param        id path int true "Subscription ID"
// @Success      200 {object} api.Response{data=subscription.Subscription}
// @Failure      409 {object} api.Response
// @Router       /memberships/{id}/freeze [put]
// @Router       /trainings/{id}/freeze [put]
func (h *Handler) Freeze(c *gin.Context) {
	h.transition(c, func(orgID string, id int) (*Subscription, error) {
		return h.service.Freeze(c.Request.Context(), orgID, h.kind, id)
	}, "frozen")
}

// @Summary      Unfreeze
// @Tags         subscriptions
// @Security     BearerAuth
// @Param        id path int true "Subscription ID"
// @Success      200 {object} api.Response{data=subscription.Subscription}
// @Failure      409 {object} api.Response
// @Router       /memberships/{id}/unfreeze [put]
// @Router       /trainings/{id}/unfreeze [put]
func (h *Handler) Unfreeze(c *gin.Context) {
	h.transition(c, func(orgID string, id int) (*Subscription, error) {
		return h.service.Unfreeze(c.Request.Context(), orgID, h.kind, id)
	}, "unfrozen")
}

// @Summary      Cancel
// @Description  Terminal. A cancelled subscription can never be edited or reactivated.
// @Tags         subscriptions
// @Accept       json
// @Security     BearerAuth
// @Param        id path int true "Subscription ID"
// @Param        request body subscription.CancelRequest false "Reason"
// @Success      200 {object} api.Response{data=subscription.Subscription}
// @Failure      409 {object} api.Response
// @Router       /memberships/{id}/cancel [put]
// @Router       /trainings/{id}/cancel [put]
func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 && !api.BindJSON(c, &req) {
		return
	}

	h.transition(c, func(orgID string, id int) (*Subscription, error) {
		return h.service.Cancel(c.Request.Context(), orgID, h.kind, id, req.Reason)
	}, "cancelled")
}

func (h *Handler) transition(c *gin.Context, apply func(orgID string, id int) (*Subscription, error), done string) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	sub, err := apply(auth.GetOrgID(c), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Message(c, string(h.kind)+" "+done, sub)
}

func queryInt(c *gin.Context, name string) *int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return nil
	}
	return &v
}
