package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/campussports/facility-booking/internal/model"
	"github.com/campussports/facility-booking/internal/service"
)

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the authenticated caller carries the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// serviceStatus maps a reservation service error onto an HTTP status.
// Conflict-style errors are expected outcomes; anything unmapped is a
// storage failure.
func serviceStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrFacilityNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrCourtNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyBooked),
		errors.Is(err, service.ErrCourtOccupied),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrEquipmentExceeded),
		errors.Is(err, service.ErrNotActive):
		return http.StatusConflict
	case errors.Is(err, service.ErrEquipmentUnknown),
		errors.Is(err, service.ErrDurationExceeded),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrInvalidPlayerCount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// failJSON renders the uniform failure envelope for booking endpoints.
func failJSON(c echo.Context, err error) error {
	status := serviceStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}
