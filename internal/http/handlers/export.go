package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pak23399/TSchedule/internal/calendar"
	"github.com/pak23399/TSchedule/internal/http/response"
	"github.com/pak23399/TSchedule/internal/ics"
	"github.com/pak23399/TSchedule/internal/observability"
	"github.com/pak23399/TSchedule/internal/platform/apierr"
	"github.com/pak23399/TSchedule/internal/platform/logger"
	"github.com/pak23399/TSchedule/internal/render"
	"github.com/pak23399/TSchedule/internal/services"
)

const maxExportWeeks = 52

type ExportHandler struct {
	log      *logger.Logger
	schedule services.ScheduleService
	renderer *render.Renderer
}

// NewExportHandler serves calendar feeds and week previews. renderer may be
// nil, in which case previews answer 503.
func NewExportHandler(log *logger.Logger, schedule services.ScheduleService, renderer *render.Renderer) *ExportHandler {
	return &ExportHandler{log: log.With("handler", "ExportHandler"), schedule: schedule, renderer: renderer}
}

// GET /api/events/export.ics?weekStart=YYYY-MM-DD&weeks=N&expand=1
func (h *ExportHandler) ICS(c *gin.Context) {
	monday, ok := weekParam(c)
	if !ok {
		return
	}
	weeks := 1
	if raw := strings.TrimSpace(c.Query("weeks")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxExportWeeks {
			response.RespondAPIError(c, apierr.Invalid("weeks must be an integer between 1 and %d", maxExportWeeks))
			return
		}
		weeks = n
	}
	mode := ics.ModeRecurring
	if c.Query("expand") == "1" {
		mode = ics.ModeExpanded
	}
	to := monday.AddDays(7*weeks - 1)

	ctx := c.Request.Context()
	rules, err := h.schedule.RulesInRange(ctx, monday, to)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	body, skipped := ics.Build(rules, ics.Options{
		Name: "TSchedule",
		Mode: mode,
		From: monday,
		To:   to,
		Loc:  h.schedule.Location(),
		Now:  time.Now(),
	})
	if len(skipped) > 0 {
		issues := make([]observability.Issue, len(skipped))
		for i, s := range skipped {
			issues[i] = observability.Issue{RuleID: s.RuleID, Reason: s.Reason}
		}
		observability.ReportDataQuality(ctx, h.log, "export", issues, map[string]any{"week_start": monday.String()})
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"schedule-%s.ics\"", monday.String()))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// GET /api/events/preview.png?weekStart=YYYY-MM-DD
func (h *ExportHandler) Preview(c *gin.Context) {
	if h.renderer == nil {
		response.RespondAPIError(c, apierr.New(http.StatusServiceUnavailable, apierr.CodeUpstream, fmt.Errorf("preview rendering disabled")))
		return
	}
	monday, ok := weekParam(c)
	if !ok {
		return
	}
	occs, err := h.schedule.WeekOccurrences(c.Request.Context(), monday)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	img, err := h.renderer.Week(monday, occs)
	if err != nil {
		response.RespondAPIError(c, apierr.Internal(err))
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img)
}

func weekParam(c *gin.Context) (calendar.Date, bool) {
	raw := strings.TrimSpace(c.Query("weekStart"))
	if raw == "" {
		response.RespondAPIError(c, apierr.Invalid("weekStart is required in format YYYY-MM-DD"))
		return calendar.Date{}, false
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		response.RespondAPIError(c, apierr.Invalid("weekStart must be a valid YYYY-MM-DD date"))
		return calendar.Date{}, false
	}
	return calendar.WeekStart(d), true
}
