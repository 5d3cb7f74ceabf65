package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pak23399/TSchedule/internal/domain/schedule"
	"github.com/pak23399/TSchedule/internal/http/response"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/services"
)

type ScheduleHandler struct {
	log      *logger.Logger
	schedule services.ScheduleService
}

func NewScheduleHandler(log *logger.Logger, schedule services.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{log: log.With("handler", "ScheduleHandler"), schedule: schedule}
}

// GET /api/events?weekStart=YYYY-MM-DD
func (h *ScheduleHandler) ListWeek(c *gin.Context) {
	view, err := h.schedule.ListWeek(c.Request.Context(), strings.TrimSpace(c.Query("weekStart")))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/events
func (h *ScheduleHandler) Create(c *gin.Context) {
	var in schedule.CreateRuleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondAPIError(c, apierr.Invalid("Invalid JSON body"))
		return
	}
	res, err := h.schedule.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// PATCH /api/events/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var patch schedule.RulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondAPIError(c, apierr.Invalid("Invalid JSON body"))
		return
	}
	if err := h.schedule.Update(c.Request.Context(), id, patch); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, schedule.OKResponse{OK: true})
}

// DELETE /api/events/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.schedule.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, schedule.OKResponse{OK: true})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		response.RespondAPIError(c, apierr.Invalid("Invalid id"))
		return 0, false
	}
	return id, true
}
