package scheduling

import (
	"errors"
	"net/http"
	"time"

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
	rg.POST("/tasks/:id/schedule", h.Schedule)
	rg.DELETE("/tasks/:id/schedule", h.Unschedule)
	rg.POST("/scheduling/check", h.Check)
}

type scheduleBody struct {
	ItemID      *string `json:"itemId"`
	ProjectID   *string `json:"projectId"`
	MachineID   *string `json:"machineId"`
	OperatorID  *string `json:"operatorId"`
	ScheduledAt *string `json:"scheduledAt"`
	DurationMin *int    `json:"durationMin"`
}

// Schedule commits a (resource, interval) assignment for the task in the
// path. Conflicts come back as 409 with the structured conflict payload so
// the client can show which task and slot are in the way.
func (h *Handler) Schedule(c *gin.Context) {
	var body scheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	req := ScheduleRequest{
		TaskID:     c.Param("id"),
		ItemID:     body.ItemID,
		ProjectID:  body.ProjectID,
		MachineID:  body.MachineID,
		OperatorID: body.OperatorID,
	}
	if body.DurationMin != nil {
		req.DurationMin = *body.DurationMin
	}
	if body.ScheduledAt != nil {
		at, err := time.Parse(time.RFC3339, *body.ScheduledAt)
		if err != nil {
			_ = c.Error(errutil.ValidationFailed("invalid schedule request",
				errutil.WithDetails(errutil.Detail{Field: "scheduledAt", Message: "must be an RFC 3339 timestamp"})))
			return
		}
		req.ScheduledAt = at
	}

	t, err := h.svc.ScheduleTask(c.Request.Context(), req)
	if err != nil {
		var base errutil.BaseError
		if errors.As(err, &base) && base.Code == errutil.StatusConflict {
			writeConflict(c, base)
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

func (h *Handler) Unschedule(c *gin.Context) {
	t, err := h.svc.Unschedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, t)
}

type checkBody struct {
	MachineID     *string `json:"machineId"`
	OperatorID    *string `json:"operatorId"`
	ScheduledAt   string  `json:"scheduledAt"`
	DurationMin   int     `json:"durationMin"`
	ExcludeTaskID string  `json:"excludeTaskId"`
	ExcludeSlotID string  `json:"excludeTimeSlotId"`
}

// Check runs a dry-run conflict check without committing anything.
func (h *Handler) Check(c *gin.Context) {
	var body checkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", errutil.WithErr(err)))
		return
	}

	at, err := time.Parse(time.RFC3339, body.ScheduledAt)
	if err != nil || body.DurationMin <= 0 {
		_ = c.Error(errutil.ValidationFailed("scheduledAt and a positive durationMin are required"))
		return
	}

	result, err := h.svc.CheckConflicts(c.Request.Context(), Candidate{
		ScheduledAt:   at,
		DurationMin:   body.DurationMin,
		MachineID:     body.MachineID,
		OperatorID:    body.OperatorID,
		ExcludeTaskID: body.ExcludeTaskID,
		ExcludeSlotID: body.ExcludeSlotID,
	})
	if err != nil {
		_ = c.Error(errutil.Internal("failed to check conflicts", errutil.WithErr(err)))
		return
	}

	c.JSON(http.StatusOK, result)
}

// writeConflict renders the scheduling conflict contract: a 409 whose body
// names the resource, the offending task and its slot.
func writeConflict(c *gin.Context, base errutil.BaseError) {
	resp := gin.H{"error": base.Message}
	if result, ok := base.Payload.(ConflictResult); ok {
		resp["conflictType"] = result.Kind
		resp["conflict"] = result.Conflict
	}
	c.JSON(http.StatusConflict, resp)
}
