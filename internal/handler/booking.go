package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campussports/facility-booking/internal/model"
	"github.com/campussports/facility-booking/internal/repository"
	"github.com/campussports/facility-booking/internal/service"
)

// ReservationAPI is the slice of the reservation service the booking
// handler needs.  Tests substitute a stub.
type ReservationAPI interface {
	Reserve(ctx context.Context, in service.ReserveInput) (*model.Booking, error)
	Expire(ctx context.Context, bookingID uint64) error
	Extend(ctx context.Context, bookingID uint64, extraMinutes int) (*model.Booking, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int, error)
}

// BookingHandler serves reservation endpoints.  Mutations go through the
// reservation service; reads go straight to the booking repository.
type BookingHandler struct {
	Svc      ReservationAPI
	Bookings *repository.BookingRepo
}

func NewBookingHandler(svc ReservationAPI, b *repository.BookingRepo) *BookingHandler {
	if svc == nil || b == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Svc: svc, Bookings: b}
}

// ----- DTOs -----

type reserveReq struct {
	Facility      string            `json:"facility"`
	PlayerCount   uint32            `json:"player_count"`
	CourtPosition uint32            `json:"court_position"` // 1-based, 0 for capacity mode
	Equipment     map[string]uint32 `json:"equipment"`
	StartsAt      time.Time         `json:"starts_at"` // default now
	EndsAt        time.Time         `json:"ends_at"`
}

type extendReq struct {
	ExtraMinutes int `json:"extra_minutes"`
}

type equipmentLineView struct {
	Name     string `json:"name"`
	Quantity uint32 `json:"quantity"`
}

type bookingView struct {
	ID            uint64              `json:"id"`
	Ref           string              `json:"ref"`
	UserID        uint64              `json:"user_id"`
	FacilityID    uint64              `json:"facility_id"`
	Facility      string              `json:"facility"`
	CourtPosition uint32              `json:"court_position,omitempty"`
	CourtLabel    string              `json:"court_label,omitempty"`
	PlayerCount   uint32              `json:"player_count"`
	Equipment     []equipmentLineView `json:"equipment"`
	StartsAt      time.Time           `json:"starts_at"`
	EndsAt        time.Time           `json:"ends_at"`
	Status        string              `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toBookingView(b *model.Booking) bookingView {
	v := bookingView{
		ID:            b.ID,
		Ref:           b.Ref,
		UserID:        b.UserID,
		FacilityID:    b.FacilityID,
		Facility:      b.FacilityName,
		CourtPosition: b.CourtPosition,
		CourtLabel:    b.CourtLabel,
		PlayerCount:   b.PlayerCount,
		Equipment:     make([]equipmentLineView, 0, len(b.Equipment)),
		StartsAt:      b.StartsAt,
		EndsAt:        b.EndsAt,
		Status:        b.Status,
		CreatedAt:     b.CreatedAt,
	}
	for _, line := range b.Equipment {
		v.Equipment = append(v.Equipment, equipmentLineView{Name: line.Name, Quantity: line.Quantity})
	}
	return v
}

// Create reserves a facility for the caller.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	if strings.TrimSpace(req.Facility) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "facility required"})
	}
	if req.StartsAt.IsZero() {
		req.StartsAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.Svc.Reserve(ctx, service.ReserveInput{
		UserID:        uid,
		FacilityName:  strings.TrimSpace(req.Facility),
		PlayerCount:   req.PlayerCount,
		CourtPosition: req.CourtPosition,
		Equipment:     req.Equipment,
		StartsAt:      req.StartsAt,
		EndsAt:        req.EndsAt,
	})
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "booking": toBookingView(booking)})
}

// List returns bookings matching the query filters.  Students only see
// their own; admins may pass user_id to inspect anyone's, or omit it for
// all bookings.
func (h *BookingHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	filter := repository.BookingFilter{
		Status: strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))),
		Date:   strings.TrimSpace(c.QueryParam("date")),
	}
	if isAdmin(c) {
		if s := c.QueryParam("user_id"); s != "" {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
			}
			filter.UserID = n
		}
	} else {
		filter.UserID = uid
	}
	if s := c.QueryParam("at"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid at, want RFC3339"})
		}
		filter.TimeOverlap = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, total, err := h.Bookings.List(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	views := make([]bookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, toBookingView(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": views, "total": total})
}

// Active returns the caller's ACTIVE booking, or null when none exists.
func (h *BookingHandler) Active(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	booking, err := h.Bookings.FindActiveByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if booking == nil {
		return c.JSON(http.StatusOK, echo.Map{"booking": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingView(booking)})
}

// loadOwned fetches a booking and enforces the owner-or-admin guard.
func (h *BookingHandler) loadOwned(c echo.Context, ctx context.Context) (*model.Booking, error) {
	uid, err := getUserID(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	booking, err := h.Bookings.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "query failed")
	}
	if booking.UserID != uid && !isAdmin(c) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "not your booking")
	}
	return booking, nil
}

// Expire returns the booking's resources and marks it EXPIRED.
func (h *BookingHandler) Expire(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.loadOwned(c, ctx)
	if err != nil {
		return err
	}
	if err := h.Svc.Expire(ctx, booking.ID); err != nil {
		return failJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Extend pushes the booking's end time out, capped at four hours total
// from the original start.
func (h *BookingHandler) Extend(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking, err := h.loadOwned(c, ctx)
	if err != nil {
		return err
	}
	var req extendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
	}
	updated, err := h.Svc.Extend(ctx, booking.ID, req.ExtraMinutes)
	if err != nil {
		return failJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": toBookingView(updated)})
}

// Delete hard-removes a booking row.  Admin only; refused while the
// booking is still ACTIVE because the facility counters would leak.
func (h *BookingHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.DeleteByID(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is still active, expire it first"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Sweep runs one expiry pass immediately.  Admin only; the background
// sweeper does the same on a timer.
func (h *BookingHandler) Sweep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	n, err := h.Svc.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": n})
}
