package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/repository"
)

// PassHandler serves the pass catalogue: public browsing plus the admin
// management surface.
type PassHandler struct {
	Passes *repository.PassRepo
	Zones  *repository.ZoneRepo
}

func NewPassHandler(p *repository.PassRepo, z *repository.ZoneRepo) *PassHandler {
	if p == nil || z == nil {
		panic("nil repository passed to NewPassHandler")
	}
	return &PassHandler{Passes: p, Zones: z}
}

type createPassReq struct {
	ZoneID            string              `json:"zone_id"`
	Name              string              `json:"name"`
	Type              string              `json:"type"`
	Price             float64             `json:"price"`
	ValidityStart     time.Time           `json:"validity_start"`
	ValidityEnd       time.Time           `json:"validity_end"`
	GroupSize         int                 `json:"group_size"`
	AvailableQuantity int                 `json:"available_quantity"`
	PricingRules      []model.PricingRule `json:"pricing_rules"`
	Description       string              `json:"description"`
}

type updatePassReq struct {
	Name         *string              `json:"name"`
	Price        *float64             `json:"price"`
	ValidityEnd  *time.Time           `json:"validity_end"`
	Quantity     *int                 `json:"available_quantity"`
	PricingRules *[]model.PricingRule `json:"pricing_rules"`
	Description  *string              `json:"description"`
}

// List returns active passes, optionally filtered by zone.  This is the
// hot read path and sits behind the response cache.
func (h *PassHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	passes, err := h.Passes.ListActive(ctx, c.QueryParam("zone_id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"passes": passes})
}

// Get returns one pass by ID, active or not.
func (h *PassHandler) Get(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	p, err := h.Passes.GetByID(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Create adds a new pass.  Admin only (enforced by route middleware).
func (h *PassHandler) Create(c echo.Context) error {
	return h.create(c, false)
}

// CreateGroup adds a group pass; group_size must be at least 2.
func (h *PassHandler) CreateGroup(c echo.Context) error {
	return h.create(c, true)
}

func (h *PassHandler) create(c echo.Context, group bool) error {
	var req createPassReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.ZoneID == "" || req.Name == "" || req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "zone_id, name and non-negative price required"})
	}
	if !req.ValidityEnd.After(req.ValidityStart) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validity window is empty"})
	}
	passType := model.PassType(strings.ToLower(req.Type))
	switch passType {
	case model.PassDaily, model.PassSeasonal, model.PassVIP, model.PassGroup, model.PassStudent:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown pass type"})
	}
	if group {
		passType = model.PassGroup
		if req.GroupSize < 2 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "group_size must be at least 2"})
		}
	} else {
		req.GroupSize = 1
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	// The zone must exist and be active before it can sell passes.
	z, err := h.Zones.GetByID(ctx, req.ZoneID)
	if err != nil {
		return serviceError(c, err)
	}
	if !z.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "zone is deactivated"})
	}

	p := &model.Pass{
		ZoneID:            req.ZoneID,
		Name:              req.Name,
		Type:              passType,
		Price:             req.Price,
		ValidityStart:     req.ValidityStart,
		ValidityEnd:       req.ValidityEnd,
		GroupSize:         req.GroupSize,
		AvailableQuantity: req.AvailableQuantity,
		PricingRules:      req.PricingRules,
		Description:       req.Description,
		IsActive:          true,
		CreatedBy:         getActor(c).UserID,
	}
	if err := h.Passes.Create(ctx, p); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// Update applies a partial update to a pass.
func (h *PassHandler) Update(c echo.Context) error {
	var req updatePassReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u := repository.PassUpdate{
		Name:         req.Name,
		Price:        req.Price,
		ValidityEnd:  req.ValidityEnd,
		Quantity:     req.Quantity,
		PricingRules: req.PricingRules,
		Description:  req.Description,
	}
	if err := h.Passes.Update(ctx, c.Param("id"), u); err != nil {
		return serviceError(c, err)
	}
	p, err := h.Passes.GetByID(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Deactivate soft-deletes a pass so it disappears from listings and can
// no longer be booked.  Existing bookings stay valid.
func (h *PassHandler) Deactivate(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Passes.Deactivate(ctx, c.Param("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pass deactivated"})
}

// Delete removes a pass outright.  Refused while any non-cancelled booking
// references it.
func (h *PassHandler) Delete(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Passes.DeleteIfUnreferenced(ctx, c.Param("id")); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "pass deleted"})
}
