package plan

import (
	"net/http"

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

// Register mounts the catalog routes. Reads are open to every profile,
// writes need the roles in writers.
func (h *Handler) Register(rg *gin.RouterGroup, writers gin.HandlerFunc) {
	types := rg.Group("/plans/types")
	types.GET("", h.ListTypes)
	types.GET("/:planTypeId", h.GetType)
	types.GET("/:planTypeId/variants", h.ListVariants)

	types.POST("", writers, h.CreateType)
	types.PATCH("/:planTypeId", writers, h.UpdateType)
	types.PUT("/:planTypeId/deactivate", writers, h.DeactivateType)
	types.POST("/:planTypeId/variants", writers, h.CreateVariant)
	types.PATCH("/:planTypeId/variants/:id", writers, h.UpdateVariant)
	types.DELETE("/:planTypeId/variants/:id", writers, h.DeleteVariant)
	types.PUT("/:planTypeId/variants/:id/deactivate", writers, h.DeactivateVariant)
}

// @Summary      Create a plan type
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body plan.CreateTypeRequest true "Plan type"
// @Success      201 {object} api.Response{data=plan.PlanType}
// @Failure      400 {object} api.Response
// @Router       /plans/types [post]
func (h *Handler) CreateType(c *gin.Context) {
	var req CreateTypeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateType(c.Request.Context(), auth.GetOrgID(c), req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, t)
}

// @Summary      List plan types
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        category query string false "membership or training"
// @Param        active   query bool   false "only active types"
// @Success      200 {object} api.Response{data=[]plan.PlanType}
// @Router       /plans/types [get]
func (h *Handler) ListTypes(c *gin.Context) {
	f := TypeFilter{
		Category:   Category(c.Query("category")),
		ActiveOnly: c.Query("active") == "true",
	}

	types, err := h.service.ListTypes(c.Request.Context(), auth.GetOrgID(c), f)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, types)
}

// @Summary      Get a plan type with its variants
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Success      200 {object} api.Response{data=plan.PlanTypeWithVariants}
// @Failure      404 {object} api.Response
// @Router       /plans/types/{planTypeId} [get]
func (h *Handler) GetType(c *gin.Context) {
	id, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}

	t, err := h.service.GetType(c.Request.Context(), auth.GetOrgID(c), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, t)
}

// @Summary      Update a plan type
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Param        request body plan.UpdateTypeRequest true "Fields to change"
// @Success      200 {object} api.Response{data=plan.PlanType}
// @Router       /plans/types/{planTypeId} [patch]
func (h *Handler) UpdateType(c *gin.Context) {
	id, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}

	var req UpdateTypeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.service.UpdateType(c.Request.Context(), auth.GetOrgID(c), id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, t)
}

// @Summary      Deactivate a plan type
// @Tags         plans
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Success      200 {object} api.Response
// @Router       /plans/types/{planTypeId}/deactivate [put]
func (h *Handler) DeactivateType(c *gin.Context) {
	id, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}

	if err := h.service.DeactivateType(c.Request.Context(), auth.GetOrgID(c), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.Message(c, "plan type deactivated", nil)
}

// @Summary      Create a plan variant
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Param        request body plan.CreateVariantRequest true "Variant"
// @Success      201 {object} api.Response{data=plan.PlanVariant}
// @Failure      404 {object} api.Response
// @Failure      422 {object} api.Response
// @Router       /plans/types/{planTypeId}/variants [post]
func (h *Handler) CreateVariant(c *gin.Context) {
	typeID, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}

	var req CreateVariantRequest
	if !api.BindJSON(c, &req) {
		return
	}

	v, err := h.service.CreateVariant(c.Request.Context(), auth.GetOrgID(c), typeID, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, v)
}

// @Summary      List variants of a plan type
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Success      200 {object} api.Response{data=[]plan.PlanVariant}
// @Router       /plans/types/{planTypeId}/variants [get]
func (h *Handler) ListVariants(c *gin.Context) {
	typeID, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}

	variants, err := h.service.ListVariants(c.Request.Context(), auth.GetOrgID(c), typeID, c.Query("active") == "true")
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, variants)
}

// @Summary      Update a plan variant
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Param        id path int true "Variant ID"
// @Param        request body plan.UpdateVariantRequest true "Fields to change"
// @Success      200 {object} api.Response{data=plan.PlanVariant}
// @Router       /plans/types/{planTypeId}/variants/{id} [patch]
func (h *Handler) UpdateVariant(c *gin.Context) {
	typeID, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateVariantRequest
	if !api.BindJSON(c, &req) {
		return
	}

	v, err := h.service.UpdateVariant(c.Request.Context(), auth.GetOrgID(c), typeID, id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, v)
}

// @Summary      Deactivate a plan variant
// @Tags         plans
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Param        id path int true "Variant ID"
// @Success      200 {object} api.Response
// @Router       /plans/types/{planTypeId}/variants/{id}/deactivate [put]
func (h *Handler) DeactivateVariant(c *gin.Context) {
	typeID, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeactivateVariant(c.Request.Context(), auth.GetOrgID(c), typeID, id); err != nil {
		api.Fail(c, err)
		return
	}
	api.Message(c, "plan variant deactivated", nil)
}

// @Summary      Delete a plan variant
// @Description  Refused with 409 while subscriptions reference the variant.
// @Tags         plans
// @Security     BearerAuth
// @Param        planTypeId path int true "Plan type ID"
// @Param        id path int true "Variant ID"
// @Success      204
// @Failure      409 {object} api.Response
// @Router       /plans/types/{planTypeId}/variants/{id} [delete]
func (h *Handler) DeleteVariant(c *gin.Context) {
	typeID, ok := api.ParamID(c, "planTypeId")
	if !ok {
		return
	}
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteVariant(c.Request.Context(), auth.GetOrgID(c), typeID, id); err != nil {
		api.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
