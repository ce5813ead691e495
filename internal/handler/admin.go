package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-pass-booking/internal/model"
	"github.com/iliyamo/event-pass-booking/internal/repository"
)

// AdminHandler serves the admin dashboard: listings, discount management
// and aggregate reports.  All routes are admin-only.
type AdminHandler struct {
	Users     *repository.UserRepo
	Zones     *repository.ZoneRepo
	Bookings  *repository.BookingRepo
	Discounts *repository.DiscountRepo
	Sales     *repository.StaffSaleRepo
}

func NewAdminHandler(u *repository.UserRepo, z *repository.ZoneRepo, b *repository.BookingRepo, d *repository.DiscountRepo, s *repository.StaffSaleRepo) *AdminHandler {
	if u == nil || z == nil || b == nil || d == nil || s == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Users: u, Zones: z, Bookings: b, Discounts: d, Sales: s}
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	return h.listByRole(c, model.RoleUser)
}

// ListStaffs handles GET /v1/admin/staffs.
func (h *AdminHandler) ListStaffs(c echo.Context) error {
	return h.listByRole(c, model.RoleStaff)
}

func (h *AdminHandler) listByRole(c echo.Context, role model.Role) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.ListByRole(ctx, role, offset, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// ListZones handles GET /v1/admin/zones.
func (h *AdminHandler) ListZones(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	zones, err := h.Zones.List(ctx)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"zones": zones})
}

// ListBookings handles GET /v1/admin/bookings with optional zone_id and
// status query filters.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	return h.listBookings(c, false)
}

// ListGroupBookings handles GET /v1/admin/group-bookings.
func (h *AdminHandler) ListGroupBookings(c echo.Context) error {
	return h.listBookings(c, true)
}

func (h *AdminHandler) listBookings(c echo.Context, groupOnly bool) error {
	f := repository.BookingFilter{
		ZoneID:    c.QueryParam("zone_id"),
		Status:    c.QueryParam("status"),
		GroupOnly: groupOnly,
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	list, err := h.Bookings.ListFiltered(ctx, f)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

type createDiscountReq struct {
	Code       string    `json:"code"`
	Percentage float64   `json:"percentage"`
	MaxLimit   float64   `json:"max_limit"`
	AssignedTo string    `json:"assigned_to"`
	ZoneID     string    `json:"zone_id"`
	Expiry     time.Time `json:"expiry"`
}

// CreateDiscount handles POST /v1/admin/discounts.  Codes are unique;
// user-assigned codes must reference an existing staff account.
func (h *AdminHandler) CreateDiscount(c echo.Context) error {
	var req createDiscountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" || req.Percentage <= 0 || req.Percentage > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and percentage in (0,100] required"})
	}
	if req.Expiry.Before(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry is in the past"})
	}
	if req.AssignedTo == "" && req.ZoneID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned_to or zone_id required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if req.AssignedTo != "" {
		ok, err := h.Users.ExistsStaff(ctx, req.AssignedTo)
		if err != nil {
			return serviceError(c, err)
		}
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned_to is not a staff user"})
		}
	}

	d := &model.Discount{
		Code:       req.Code,
		Percentage: req.Percentage,
		MaxLimit:   req.MaxLimit,
		AssignedTo: req.AssignedTo,
		ZoneID:     req.ZoneID,
		Expiry:     req.Expiry,
		IsActive:   true,
	}
	if err := h.Discounts.Create(ctx, d); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "discount code already exists"})
		}
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// ListDiscounts handles GET /v1/admin/discounts with an optional zone_id
// filter.
func (h *AdminHandler) ListDiscounts(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	list, err := h.Discounts.ListFiltered(ctx, c.QueryParam("zone_id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"discounts": list})
}

// StaffSalesReport handles GET /v1/admin/staff-sales with optional start
// and end query params (RFC 3339).
func (h *AdminHandler) StaffSalesReport(c echo.Context) error {
	start, err := parseTimeParam(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be RFC 3339"})
	}
	end, err := parseTimeParam(c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be RFC 3339"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	report, err := h.Sales.Report(ctx, start, end)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"report": report})
}

// Stats handles GET /v1/admin/stats?period=today|week|month.
func (h *AdminHandler) Stats(c echo.Context) error {
	now := time.Now().UTC()
	var start time.Time
	switch c.QueryParam("period") {
	case "", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "period must be today, week or month"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	stats, err := h.Bookings.Stats(ctx, start, now)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func parseTimeParam(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
