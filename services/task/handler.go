package task

import (
	"net/http"

	"workshop-backend/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/tasks", h.Create)
	rg.GET("/tasks", h.List)
	rg.GET("/tasks/:id", h.Get)
	rg.PATCH("/tasks/:id", h.Update)
	rg.DELETE("/tasks/:id", h.Delete)
	rg.POST("/tasks/:id/status", h.Transition)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	t, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

func (h *Handler) List(c *gin.Context) {
	var f Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		_ = c.Error(errutil.BadRequest("invalid query params", errutil.WithErr(err)))
		return
	}

	tasks, page, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "page": page})
}

func (h *Handler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

type transitionBody struct {
	Status Status `json:"status"`
}

func (h *Handler) Transition(c *gin.Context) {
	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		_ = c.Error(errutil.ValidationFailed("status is required"))
		return
	}

	t, err := h.svc.Transition(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}
