package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/repository"
)

// ZoneHandler manages event zones.  All routes are admin-only.
type ZoneHandler struct {
	Zones *repository.ZoneRepo
}

func NewZoneHandler(z *repository.ZoneRepo) *ZoneHandler {
	if z == nil {
		panic("nil repository passed to NewZoneHandler")
	}
	return &ZoneHandler{Zones: z}
}

type zoneReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /v1/zone.
func (h *ZoneHandler) Create(c echo.Context) error {
	var req zoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	z := &model.Zone{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedBy:   getActor(c).UserID,
	}
	if err := h.Zones.Create(ctx, z); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "zone name already exists"})
		}
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, z)
}

// Get handles GET /v1/zone/:id.
func (h *ZoneHandler) Get(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	z, err := h.Zones.GetByID(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, z)
}

// Update handles PUT /v1/zone/:id.
func (h *ZoneHandler) Update(c echo.Context) error {
	var req zoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Zones.Update(ctx, c.Param("id"), strings.TrimSpace(req.Name), req.Description); err != nil {
		return serviceError(c, err)
	}
	z, err := h.Zones.GetByID(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, z)
}

// Deactivate handles PUT /v1/zone/deactivate/:id.  Passes in the zone stay
// defined but can no longer be created against it.
func (h *ZoneHandler) Deactivate(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Zones.Deactivate(ctx, c.Param("id"), getActor(c).UserID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "zone deactivated"})
}

// Reactivate handles PUT /v1/zone/reactivate/:id.
func (h *ZoneHandler) Reactivate(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Zones.Reactivate(ctx, c.Param("id"), getActor(c).UserID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "zone reactivated"})
}

// Delete handles DELETE /v1/zone/:id.  Refused while the zone still has
// active passes.
func (h *ZoneHandler) Delete(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Zones.Delete(ctx, c.Param("id")); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "zone still has active passes"})
		}
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "zone deleted"})
}
