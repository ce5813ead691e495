// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-pass-booking/internal/config"
	"github.com/iliyamo/event-pass-booking/internal/handler"
	"github.com/iliyamo/event-pass-booking/internal/middleware"
	"github.com/iliyamo/event-pass-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface.  Register, login and
// refresh are open; logout and verify-otp require a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	authed := e.Group("/v1/auth")
	authed.Use(middleware.JWTAuth(jwtSecret))
	authed.POST("/logout", a.Logout)
	authed.POST("/verify-otp", a.VerifyOTP)
}

// RegisterPasses registers the pass catalogue.  Browsing is public and the
// listing sits behind the response cache; management is admin-only.
func RegisterPasses(e *echo.Echo, p *handler.PassHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/v1/passes", p.List, middleware.NewRedisCache(cacheCfg, rdb))
	e.GET("/v1/passes/:id", p.Get)

	admin := e.Group("/v1/passes")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(string(model.RoleAdmin)))
	admin.POST("", p.Create)
	admin.POST("/group", p.CreateGroup)
	admin.PUT("/:id", p.Update)
	admin.POST("/deactivate/:id", p.Deactivate)
	admin.DELETE("/:id", p.Delete)
}

// RegisterBookings registers the booking lifecycle routes.  Any
// authenticated role may book; ownership checks happen in the service.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/:pass_id", b.Create)
	g.PUT("/cancel/:booking_id", b.Cancel)
	g.POST("/verify-payment", b.VerifyPayment)
	g.GET("/user/:user_id", b.ListForUser)
	g.GET("/:id", b.Get)
}

// RegisterValidation registers the gate-side routes for staff and admins.
func RegisterValidation(e *echo.Echo, v *handler.ValidationHandler, jwtSecret string) {
	g := e.Group("/v1/validate")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(string(model.RoleStaff), string(model.RoleAdmin)))
	g.POST("/validate-qr", v.ValidateQR)
	g.POST("/validate-group-entry/:booking_id/:member_index", v.ValidateGroupEntry)
}

// RegisterStaff registers the counter workflows, staff role only.
func RegisterStaff(e *echo.Echo, s *handler.StaffHandler, jwtSecret string) {
	g := e.Group("/v1/staff")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(string(model.RoleStaff)))
	g.POST("/verify-booking/:booking_id", s.VerifyBooking)
	g.GET("/sales", s.ListSales)
	g.GET("/active-discounts", s.ListActiveDiscounts)
}

// RegisterZones registers zone management, admin only.
func RegisterZones(e *echo.Echo, z *handler.ZoneHandler, jwtSecret string) {
	g := e.Group("/v1/zone")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(string(model.RoleAdmin)))
	g.POST("", z.Create)
	g.GET("/:id", z.Get)
	g.PUT("/deactivate/:id", z.Deactivate)
	g.PUT("/reactivate/:id", z.Reactivate)
	g.PUT("/:id", z.Update)
	g.DELETE("/:id", z.Delete)
}

// RegisterAdmin registers the admin dashboard, admin only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(string(model.RoleAdmin)))
	g.GET("/users", a.ListUsers)
	g.GET("/staffs", a.ListStaffs)
	g.GET("/zones", a.ListZones)
	g.GET("/bookings", a.ListBookings)
	g.GET("/group-bookings", a.ListGroupBookings)
	g.GET("/discounts", a.ListDiscounts)
	g.POST("/discounts", a.CreateDiscount)
	g.GET("/staff-sales", a.StaffSalesReport)
	g.GET("/stats", a.Stats)
}
