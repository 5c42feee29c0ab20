package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-seat-booking/internal/api"
	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// Services はルーティング先のアプリケーションサービス
type Services struct {
	Events       handler.EventServiceInterface
	Seats        handler.SeatServiceInterface
	Reservations handler.ReservationServiceInterface
	Bookings     handler.BookingServiceInterface
}

// Options はルーター全体の設定
type Options struct {
	JWTSecret    string
	Metrics      *metrics.Metrics
	MetricsAuth  *middleware.MetricsConfig
	HealthChecks map[string]handler.HealthCheck
}

// New はミドルウェアとルートを設定した Echo を返す
func New(s Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	if opts.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(opts.Metrics))
	}

	eventHandler := handler.NewEventHandler(s.Events)
	seatHandler := handler.NewSeatHandler(s.Seats)
	holdHandler := handler.NewHoldHandler(s.Reservations)
	bookingHandler := handler.NewBookingHandler(s.Bookings)
	healthHandler := handler.NewHealthHandler(opts.HealthChecks)

	e.GET("/health", healthHandler.Check)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(opts.MetricsAuth))
	}

	v1 := e.Group("/api/v1", middleware.JWTAuth(opts.JWTSecret))
	managerOnly := middleware.RequireRole(middleware.RoleEventManager)

	v1.POST("/events", eventHandler.Create, managerOnly)
	v1.GET("/events/:id", eventHandler.GetByID)

	v1.POST("/events/:event_id/seats/provision", seatHandler.Provision, managerOnly)
	v1.GET("/events/:event_id/seats", seatHandler.GetByEvent)
	v1.GET("/events/:event_id/seats/available/count", seatHandler.CountAvailable)
	v1.GET("/seats/:id", seatHandler.GetByID)

	v1.POST("/events/:event_id/holds", holdHandler.Hold)
	v1.POST("/events/:event_id/holds/release", holdHandler.Release)

	v1.POST("/bookings", bookingHandler.Finalize)
	v1.GET("/bookings", bookingHandler.List)
	v1.GET("/bookings/:id", bookingHandler.GetByID)

	return e
}
