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

// FacilityHandler serves the public facility catalog and the admin CRUD
// surface over it.
type FacilityHandler struct {
	Facilities *repository.FacilityRepo
}

func NewFacilityHandler(f *repository.FacilityRepo) *FacilityHandler {
	if f == nil {
		panic("nil repository passed to NewFacilityHandler")
	}
	return &FacilityHandler{Facilities: f}
}

// ----- DTOs -----

type facilityReq struct {
	Name        string            `json:"name"`
	CourtCount  uint32            `json:"court_count"`
	MaxCapacity uint32            `json:"max_capacity"`
	CourtLabels []string          `json:"court_labels"` // optional, defaults to "Court N"
	Equipment   map[string]uint32 `json:"equipment"`    // name -> total quantity
}

type courtView struct {
	Position uint32 `json:"position"`
	Label    string `json:"label"`
	Occupied bool   `json:"occupied"`
}

type equipmentView struct {
	Name   string `json:"name"`
	Total  uint32 `json:"total"`
	InUse  uint32 `json:"in_use"`
	OnHand uint32 `json:"available"`
}

type facilityView struct {
	ID             uint64          `json:"id"`
	Name           string          `json:"name"`
	CourtCount     uint32          `json:"court_count"`
	MaxCapacity    uint32          `json:"max_capacity"`
	CourtsInUse    uint32          `json:"courts_in_use"`
	PlayersPresent uint32          `json:"players_present"`
	Courts         []courtView     `json:"courts"`
	Equipment      []equipmentView `json:"equipment"`
}

func toFacilityView(f *model.Facility) facilityView {
	v := facilityView{
		ID:             f.ID,
		Name:           f.Name,
		CourtCount:     f.CourtCount,
		MaxCapacity:    f.MaxCapacity,
		CourtsInUse:    f.CourtsInUse,
		PlayersPresent: f.PlayersPresent,
		Courts:         make([]courtView, 0, len(f.Courts)),
		Equipment:      make([]equipmentView, 0, len(f.Equipment)),
	}
	for _, ct := range f.Courts {
		v.Courts = append(v.Courts, courtView{Position: ct.Position, Label: ct.Label, Occupied: ct.Occupied})
	}
	for _, eq := range f.Equipment {
		v.Equipment = append(v.Equipment, equipmentView{
			Name: eq.Name, Total: eq.TotalQty, InUse: eq.InUseQty, OnHand: eq.TotalQty - eq.InUseQty,
		})
	}
	return v
}

// toModel validates the request body and builds a Facility for the
// repository.  A facility is either court mode or capacity mode, never
// both.
func (req facilityReq) toModel() (*model.Facility, string) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, "name required"
	}
	if req.CourtCount > 0 && req.MaxCapacity > 0 {
		return nil, "court_count and max_capacity are mutually exclusive"
	}
	if req.CourtCount == 0 && req.MaxCapacity == 0 {
		return nil, "either court_count or max_capacity required"
	}
	if len(req.CourtLabels) > 0 && uint32(len(req.CourtLabels)) != req.CourtCount {
		return nil, "court_labels length must match court_count"
	}
	f := &model.Facility{Name: name, CourtCount: req.CourtCount, MaxCapacity: req.MaxCapacity}
	for i, label := range req.CourtLabels {
		f.Courts = append(f.Courts, model.Court{Position: uint32(i + 1), Label: strings.TrimSpace(label)})
	}
	for eqName, qty := range req.Equipment {
		eqName = strings.TrimSpace(eqName)
		if eqName == "" || qty == 0 {
			return nil, "equipment entries need a name and a positive quantity"
		}
		f.Equipment = append(f.Equipment, model.EquipmentItem{Name: eqName, TotalQty: qty})
	}
	return f, ""
}

// List returns every facility with live occupancy.  Public, cached.
func (h *FacilityHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	facilities, err := h.Facilities.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	views := make([]facilityView, 0, len(facilities))
	for i := range facilities {
		views = append(views, toFacilityView(&facilities[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": views, "total": len(views)})
}

// Get returns one facility by name.  Public, cached.
func (h *FacilityHandler) Get(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "facility name required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f, err := h.Facilities.GetByName(ctx, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toFacilityView(f))
}

// Create adds a facility.  Admin only.
func (h *FacilityHandler) Create(c echo.Context) error {
	var req facilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	f, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Facilities.Create(ctx, f); err != nil {
		if err == repository.ErrNameExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toFacilityView(f))
}

// Update replaces a facility's layout.  Refused while the facility has
// active bookings, because rebuilding courts under a live booking would
// strand its occupancy.  Admin only.
func (h *FacilityHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req facilityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	f, msg := req.toModel()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	f.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Facilities.Update(ctx, f); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility has active bookings"})
		case repository.ErrNameExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toFacilityView(f))
}

// Delete removes a facility.  Refused while active bookings exist.
// Admin only.
func (h *FacilityHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Facilities.Delete(ctx, id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "facility not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "facility has active bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
