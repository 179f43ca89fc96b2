package trainer

import (
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

func (h *Handler) Register(g *gin.RouterGroup, writers gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", writers, h.Create)
	g.PATCH("/:id", writers, h.Update)
	g.PUT("/:id/deactivate", writers, h.Deactivate)
}

// @Summary      List trainers
// @Tags         trainers
// @Produce      json
// @Security     BearerAuth
// @Param        activeOnly query bool false "Only active trainers"
// @Success      200 {object} api.Response{data=[]trainer.Trainer}
// @Router       /trainers [get]
func (h *Handler) List(c *gin.Context) {
	trainers, err := h.service.List(c.Request.Context(), auth.GetOrgID(c), c.Query("activeOnly") == "true")
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, trainers)
}

// @Summary      Get a trainer
// @Tags         trainers
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Trainer ID"
// @Success      200 {object} api.Response{data=trainer.Trainer}
// @Failure      404 {object} api.Response
// @Router       /trainers/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.Get(c.Request.Context(), auth.GetOrgID(c), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, t)
}

// @Summary      Create a trainer
// @Tags         trainers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body trainer.CreateRequest true "Trainer"
// @Success      201 {object} api.Response{data=trainer.Trainer}
// @Router       /trainers [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Create(c.Request.Context(), auth.GetOrgID(c), req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.Created(c, t)
}

// @Summary      Update a trainer
// @Tags         trainers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Trainer ID"
// @Param        request body trainer.UpdateRequest true "Fields to change"
// @Success      200 {object} api.Response{data=trainer.Trainer}
// @Router       /trainers/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Update(c.Request.Context(), auth.GetOrgID(c), id, req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, t)
}

// @Summary      Deactivate a trainer
// @Description  Refused with 409 while the trainer has active or frozen trainings.
// @Tags         trainers
// @Security     BearerAuth
// @Param        id path int true "Trainer ID"
// @Success      200 {object} api.Response
// @Failure      409 {object} api.Response
// @Router       /trainers/{id}/deactivate [put]
func (h *Handler) Deactivate(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), auth.GetOrgID(c), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.Message(c, "trainer deactivated", nil)
}
