package user

import (
	"net/http"
	"strconv"

	"gymdesk/internal/api"
	"gymdesk/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterSync mounts the one route that works before a profile exists.
func (h *Handler) RegisterSync(g *gin.RouterGroup) {
	g.POST("/users/sync", h.Sync)
}

// Register mounts /users/me for every profile. Member records carry
// contact details, so all /members routes sit behind staff.
func (h *Handler) Register(g *gin.RouterGroup, staff gin.HandlerFunc) {
	g.GET("/users/me", h.Me)

	m := g.Group("/members", staff)
	m.GET("", h.ListMembers)
	m.GET("/:id", h.GetMember)
	m.POST("", h.CreateMember)
	m.PATCH("/:id", h.UpdateMember)
	m.DELETE("/:id", h.DeleteMember)
}

// @Summary      Sync the caller's profile
// @Description  Creates or refreshes the local user row from the identity token. Idempotent.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response{data=user.User}
// @Failure      401 {object} api.Response
// @Router       /users/sync [post]
func (h *Handler) Sync(c *gin.Context) {
	claims, ok := auth.GetClaims(c)
	if !ok {
		api.Abort(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.service.Sync(c.Request.Context(), auth.GetOrgID(c), claims)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, u)
}

// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.Response{data=user.User}
// @Router       /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		api.Abort(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.service.Me(c.Request.Context(), auth.GetOrgID(c), userID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, u)
}

// @Summary      List members
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        search query string false "Name, email or phone fragment"
// @Param        active query bool   false "Only active (true) or inactive (false)"
// @Param        page   query int    false "Page"  default(1)
// @Param        limit  query int    false "Limit" default(20)
// @Success      200 {object} api.Response{data=[]user.User}
// @Router       /members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	page, limit := api.PageParams(c)
	f := MemberFilter{Search: c.Query("search"), Page: page, Limit: limit}
	if v, err := strconv.ParseBool(c.Query("active")); err == nil {
		f.Active = &v
	}

	members, total, err := h.service.ListMembers(c.Request.Context(), auth.GetOrgID(c), f)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Paged(c, members, api.NewPagination(page, limit, total))
}

// @Summary      Get a member
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Member ID"
// @Success      200 {object} api.Response{data=user.User}
// @Failure      404 {object} api.Response
// @Router       /members/{id} [get]
func (h *Handler) GetMember(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	u, err := h.service.GetMember(c.Request.Context(), auth.GetOrgID(c), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, u)
}

// @Summary      Create a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body user.CreateMemberRequest true "Member"
// @Success      201 {object} api.Response{data=user.User}
// @Failure      400 {object} api.Response
// @Router       /members [post]
func (h *Handler) CreateMember(c *gin.Context) {
	var req CreateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	u, err := h.service.CreateMember(c.Request.Context(), auth.GetOrgID(c), req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, u)
}

// @Summary      Update a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Member ID"
// @Param        request body user.UpdateMemberRequest true "Fields to change"
// @Success      200 {object} api.Response{data=user.User}
// @Failure      409 {object} api.Response
// @Router       /members/{id} [patch]
func (h *Handler) UpdateMember(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateMemberRequest
	if !api.BindJSON(c, &req) {
		return
	}

	u, err := h.service.UpdateMember(c.Request.Context(), auth.GetOrgID(c), id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, u)
}

// @Summary      Deactivate a member
// @Description  Refused with 409 while the member holds an active or frozen subscription.
// @Tags         members
// @Security     BearerAuth
// @Param        id path int true "Member ID"
// @Success      200 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /members/{id} [delete]
func (h *Handler) DeleteMember(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteMember(c.Request.Context(), auth.GetOrgID(c), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.Message(c, "member deactivated", nil)
}
