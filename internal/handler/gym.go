package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campussports/facility-booking/internal/model"
	"github.com/campussports/facility-booking/internal/repository"
)

// GymHandler serves gym attendance: a single scan endpoint that toggles
// check-in/check-out plus a per-user stats view.
type GymHandler struct {
	Logs *repository.GymLogRepo
}

func NewGymHandler(logs *repository.GymLogRepo) *GymHandler {
	if logs == nil {
		panic("nil repository passed to NewGymHandler")
	}
	return &GymHandler{Logs: logs}
}

type gymLogView struct {
	ID            uint64     `json:"id"`
	EntryTime     time.Time  `json:"entry_time"`
	ExitTime      *time.Time `json:"exit_time,omitempty"`
	DurationHours float64    `json:"duration_hours"`
}

func toGymLogView(g *model.GymLog) gymLogView {
	return gymLogView{ID: g.ID, EntryTime: g.EntryTime, ExitTime: g.ExitTime, DurationHours: g.DurationHours}
}

// Scan toggles the caller's attendance: with no open session it checks
// them in, otherwise it checks them out and stamps the duration.
func (h *GymHandler) Scan(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	open, err := h.Logs.FindOpenByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	now := time.Now().UTC()
	if open == nil {
		entry, err := h.Logs.CheckIn(ctx, uid, now)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
		}
		return c.JSON(http.StatusCreated, echo.Map{"action": "check-in", "log": toGymLogView(entry)})
	}
	closed, err := h.Logs.CheckOut(ctx, open, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-out failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"action": "check-out", "log": toGymLogView(closed)})
}

// Stats returns the caller's attendance summary: total hours, hours in
// the last seven days, session count and the ten most recent entries.
func (h *GymHandler) Stats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	logs, err := h.Logs.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	var total, weekly float64
	checkedIn := false
	for _, g := range logs {
		if g.ExitTime == nil {
			checkedIn = true
			continue // open session has no duration yet
		}
		total += g.DurationHours
		if g.EntryTime.After(weekAgo) {
			weekly += g.DurationHours
		}
	}

	history := make([]gymLogView, 0, 10)
	for i := range logs {
		if len(history) == 10 {
			break
		}
		history = append(history, toGymLogView(&logs[i]))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_hours":    repository.RoundHours(time.Duration(total * float64(time.Hour))),
		"weekly_hours":   repository.RoundHours(time.Duration(weekly * float64(time.Hour))),
		"sessions_count": len(logs),
		"checked_in":     checkedIn,
		"history":        history,
	})
}
