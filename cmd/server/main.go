package main

import (
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/event-pass-booking/internal/booking"
	"github.com/iliyamo/event-pass-booking/internal/config"
	"github.com/iliyamo/event-pass-booking/internal/database"
	"github.com/iliyamo/event-pass-booking/internal/handler"
	"github.com/iliyamo/event-pass-booking/internal/middleware"
	"github.com/iliyamo/event-pass-booking/internal/payment"
	"github.com/iliyamo/event-pass-booking/internal/pricing"
	"github.com/iliyamo/event-pass-booking/internal/qr"
	"github.com/iliyamo/event-pass-booking/internal/queue"
	"github.com/iliyamo/event-pass-booking/internal/repository"
	"github.com/iliyamo/event-pass-booking/internal/router"
	"github.com/iliyamo/event-pass-booking/internal/validation"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	zones := repository.NewZoneRepo(db)
	passes := repository.NewPassRepo(db)
	bookings := repository.NewBookingRepo(db)
	discounts := repository.NewDiscountRepo(db)
	sales := repository.NewStaffSaleRepo(db)

	engine := pricing.NewEngine(discounts, cfg.DiscountSingleUse)

	var gateway payment.Gateway
	if cfg.PaymentEnabled {
		gateway = payment.NewSimGateway(cfg.PaymentKeySecret, cfg.PaymentCurrency)
	} else {
		log.Warn("payment gateway disabled; bookings activate without payment")
	}

	manager := booking.NewManager(passes, bookings, engine, gateway, qr.Encode)
	validator := validation.NewValidator(bookings, sales)

	go func() {
		if err := queue.StartEventConsumer(); err != nil {
			log.WithError(err).Error("event consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	router.RegisterPasses(e, handler.NewPassHandler(passes, zones), cfg.JWTSecret, config.LoadCacheConfig(), rdb)
	router.RegisterBookings(e, handler.NewBookingHandler(manager, users, bookings), cfg.JWTSecret)
	router.RegisterValidation(e, handler.NewValidationHandler(validator), cfg.JWTSecret)
	router.RegisterStaff(e, handler.NewStaffHandler(validator, sales, discounts), cfg.JWTSecret)
	router.RegisterZones(e, handler.NewZoneHandler(zones), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(users, zones, bookings, discounts, sales), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.WithFields(log.Fields{"addr": addr, "env": cfg.Env}).Info("server starting")
	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
