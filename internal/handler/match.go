package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campussports/facility-booking/internal/model"
	"github.com/campussports/facility-booking/internal/repository"
	"github.com/campussports/facility-booking/internal/service"
)

// MatchHandler serves the live scoreboard.  Reads are public; writes are
// admin-only and fan out through the occupancy relay so connected
// scoreboards refetch.
type MatchHandler struct {
	Matches  *repository.MatchRepo
	Notifier service.Notifier
}

func NewMatchHandler(m *repository.MatchRepo, n service.Notifier) *MatchHandler {
	if m == nil {
		panic("nil repository passed to NewMatchHandler")
	}
	if n == nil {
		n = service.NopNotifier{}
	}
	return &MatchHandler{Matches: m, Notifier: n}
}

type matchReq struct {
	SportName string `json:"sport_name"`
	Team1     string `json:"team1"`
	Team2     string `json:"team2"`
	Score1    uint32 `json:"score1"`
	Score2    uint32 `json:"score2"`
	Status    string `json:"status"` // live | finished
}

type matchView struct {
	ID        uint64    `json:"id"`
	SportName string    `json:"sport_name"`
	Team1     string    `json:"team1"`
	Team2     string    `json:"team2"`
	Score1    uint32    `json:"score1"`
	Score2    uint32    `json:"score2"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toMatchView(m *model.Match) matchView {
	return matchView{
		ID: m.ID, SportName: m.SportName, Team1: m.Team1, Team2: m.Team2,
		Score1: m.Score1, Score2: m.Score2, Status: m.Status, UpdatedAt: m.UpdatedAt,
	}
}

// List returns matches, optionally filtered by status and sport.
// Public, cached.
func (h *MatchHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	matches, err := h.Matches.List(ctx,
		strings.TrimSpace(c.QueryParam("status")),
		strings.TrimSpace(c.QueryParam("sport")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	views := make([]matchView, 0, len(matches))
	for i := range matches {
		views = append(views, toMatchView(&matches[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": views, "total": len(views)})
}

// Create adds a scoreboard entry.  Admin only.
func (h *MatchHandler) Create(c echo.Context) error {
	var req matchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SportName = strings.TrimSpace(req.SportName)
	req.Team1 = strings.TrimSpace(req.Team1)
	req.Team2 = strings.TrimSpace(req.Team2)
	if req.SportName == "" || req.Team1 == "" || req.Team2 == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sport_name/team1/team2 required"})
	}
	if req.Status == "" {
		req.Status = "live"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := &model.Match{
		SportName: req.SportName, Team1: req.Team1, Team2: req.Team2,
		Score1: req.Score1, Score2: req.Score2, Status: req.Status,
	}
	if err := h.Matches.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	if err := h.Notifier.OccupancyChanged(ctx); err != nil {
		c.Logger().Warnf("scoreboard relay failed: %v", err)
	}
	return c.JSON(http.StatusCreated, toMatchView(m))
}

// Update sets the score and status of a match.  Admin only.
func (h *MatchHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req matchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status == "" {
		req.Status = "live"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Matches.UpdateScore(ctx, id, req.Score1, req.Score2, req.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := h.Notifier.OccupancyChanged(ctx); err != nil {
		c.Logger().Warnf("scoreboard relay failed: %v", err)
	}
	return c.JSON(http.StatusOK, toMatchView(m))
}

// Delete removes a scoreboard entry.  Admin only.
func (h *MatchHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Matches.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	if err := h.Notifier.OccupancyChanged(ctx); err != nil {
		c.Logger().Warnf("scoreboard relay failed: %v", err)
	}
	return c.NoContent(http.StatusNoContent)
}
