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
)

// InviteHandler serves teammate-search posts.
type InviteHandler struct {
	Invites *repository.InviteRepo
}

func NewInviteHandler(i *repository.InviteRepo) *InviteHandler {
	if i == nil {
		panic("nil repository passed to NewInviteHandler")
	}
	return &InviteHandler{Invites: i}
}

type inviteReq struct {
	Sport    string `json:"sport"`
	Venue    string `json:"venue"`
	PlayDate string `json:"play_date"` // YYYY-MM-DD
	PlayTime string `json:"play_time"` // HH:MM
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

type inviteView struct {
	ID        uint64    `json:"id"`
	Sport     string    `json:"sport"`
	Venue     string    `json:"venue"`
	PlayDate  string    `json:"play_date"`
	PlayTime  string    `json:"play_time"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile"`
	CreatedAt time.Time `json:"created_at"`
}

func toInviteView(inv *model.Invite) inviteView {
	return inviteView{
		ID: inv.ID, Sport: inv.Sport, Venue: inv.Venue,
		PlayDate: inv.PlayDate, PlayTime: inv.PlayTime,
		Name: inv.Name, Email: inv.Email, Mobile: inv.Mobile,
		CreatedAt: inv.CreatedAt,
	}
}

// List returns every visible invite, newest first.
func (h *InviteHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	invites, err := h.Invites.ListVisible(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	views := make([]inviteView, 0, len(invites))
	for i := range invites {
		views = append(views, toInviteView(&invites[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": views, "total": len(views)})
}

// Create posts a new invite for the caller.
func (h *InviteHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req inviteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Sport = strings.TrimSpace(req.Sport)
	req.Venue = strings.TrimSpace(req.Venue)
	req.Name = strings.TrimSpace(req.Name)
	if req.Sport == "" || req.Venue == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sport/venue/name required"})
	}
	if _, err := time.Parse("2006-01-02", req.PlayDate); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "play_date must be YYYY-MM-DD"})
	}
	if _, err := time.Parse("15:04", req.PlayTime); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "play_time must be HH:MM"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	inv := &model.Invite{
		UserID: uid, Sport: req.Sport, Venue: req.Venue,
		PlayDate: req.PlayDate, PlayTime: req.PlayTime,
		Name: req.Name, Email: strings.TrimSpace(req.Email), Mobile: strings.TrimSpace(req.Mobile),
		Visible: true,
	}
	if err := h.Invites.Create(ctx, inv); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toInviteView(inv))
}

// Hide unlists the caller's own invite.
func (h *InviteHandler) Hide(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Invites.Hide(ctx, id, uid); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your invite"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hide failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Delete removes an invite.  Authors delete their own; admins any.
func (h *InviteHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Invites.Delete(ctx, id, uid, isAdmin(c)); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your invite"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
