package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campussports/facility-booking/internal/model"
	"github.com/campussports/facility-booking/internal/repository"
	"github.com/campussports/facility-booking/internal/service"
)

// stubReservations records the last call and plays back canned results.
type stubReservations struct {
	reserveIn  service.ReserveInput
	reserveOut *model.Booking
	reserveErr error
	expireErr  error
	extendOut  *model.Booking
	extendErr  error
	sweepN     int
}

func (s *stubReservations) Reserve(_ context.Context, in service.ReserveInput) (*model.Booking, error) {
	s.reserveIn = in
	return s.reserveOut, s.reserveErr
}

func (s *stubReservations) Expire(context.Context, uint64) error { return s.expireErr }

func (s *stubReservations) Extend(context.Context, uint64, int) (*model.Booking, error) {
	return s.extendOut, s.extendErr
}

func (s *stubReservations) ExpireOverdue(context.Context, time.Time) (int, error) {
	return s.sweepN, nil
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", model.RoleStudent)
	return c, rec
}

func TestBookingCreate(t *testing.T) {
	stub := &stubReservations{
		reserveOut: &model.Booking{
			ID: 1, Ref: "abc", UserID: 7, FacilityID: 1, FacilityName: "Badminton",
			CourtPosition: 2, CourtLabel: "Court 2", PlayerCount: 2,
			Status: model.BookingActive,
		},
	}
	h := NewBookingHandler(stub, repository.NewBookingRepo(nil))

	body := `{"facility":"Badminton","player_count":2,"court_position":2,
	          "starts_at":"2026-09-01T10:00:00Z","ends_at":"2026-09-01T11:00:00Z"}`
	c, rec := newTestContext(http.MethodPost, "/v1/bookings", body)

	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// handler passed the request through to the service unchanged
	assert.Equal(t, uint64(7), stub.reserveIn.UserID)
	assert.Equal(t, "Badminton", stub.reserveIn.FacilityName)
	assert.Equal(t, uint32(2), stub.reserveIn.CourtPosition)

	var resp struct {
		Success bool        `json:"success"`
		Booking bookingView `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "abc", resp.Booking.Ref)
	assert.Equal(t, "Court 2", resp.Booking.CourtLabel)
}

func TestBookingCreateDefaultsStart(t *testing.T) {
	stub := &stubReservations{reserveOut: &model.Booking{}}
	h := NewBookingHandler(stub, repository.NewBookingRepo(nil))

	c, _ := newTestContext(http.MethodPost, "/v1/bookings",
		`{"facility":"Badminton","player_count":1,"court_position":1,"ends_at":"2100-01-01T00:00:00Z"}`)
	require.NoError(t, h.Create(c))
	assert.WithinDuration(t, time.Now().UTC(), stub.reserveIn.StartsAt, 5*time.Second)
}

func TestBookingCreateErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrAlreadyBooked, http.StatusConflict},
		{service.ErrCourtOccupied, http.StatusConflict},
		{service.ErrCapacityExceeded, http.StatusConflict},
		{service.ErrEquipmentExceeded, http.StatusConflict},
		{service.ErrFacilityNotFound, http.StatusNotFound},
		{service.ErrCourtNotFound, http.StatusNotFound},
		{service.ErrEquipmentUnknown, http.StatusBadRequest},
		{service.ErrInvalidWindow, http.StatusBadRequest},
		{service.ErrInvalidPlayerCount, http.StatusBadRequest},
	}
	for _, tc := range cases {
		stub := &stubReservations{reserveErr: tc.err}
		h := NewBookingHandler(stub, repository.NewBookingRepo(nil))
		c, rec := newTestContext(http.MethodPost, "/v1/bookings",
			`{"facility":"Badminton","player_count":1,"ends_at":"2100-01-01T00:00:00Z"}`)

		require.NoError(t, h.Create(c))
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)

		var resp struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, tc.err.Error(), resp.Error)
	}
}

func TestBookingCreateMissingFacility(t *testing.T) {
	h := NewBookingHandler(&stubReservations{}, repository.NewBookingRepo(nil))
	c, rec := newTestContext(http.MethodPost, "/v1/bookings", `{"player_count":1}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingSweep(t *testing.T) {
	h := NewBookingHandler(&stubReservations{sweepN: 3}, repository.NewBookingRepo(nil))
	c, rec := newTestContext(http.MethodPost, "/v1/bookings/sweep", "")
	c.Set("role", model.RoleAdmin)

	require.NoError(t, h.Sweep(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"expired":3}`, rec.Body.String())
}

func TestServiceStatusFallback(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, serviceStatus(assert.AnError))
}
