package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"carbooking/internal/infra/config"
	"carbooking/internal/infra/obs"
)

type FleetHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Save(c *gin.Context)
	Bookings(c *gin.Context)
	Availability(c *gin.Context)
}

type PricingHTTP interface {
	Preview(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByNumber(c *gin.Context)
	Update(c *gin.Context)
	Transition(c *gin.Context)
	Cancel(c *gin.Context)
	Refund(c *gin.Context)
}

type CustomerHTTP interface {
	Search(c *gin.Context)
}

type Handlers struct {
	Fleet     FleetHTTP
	Pricing   PricingHTTP
	Booking   BookingHTTP
	Customers CustomerHTTP
	Auth      OperatorAuth
}

// NewServer mounts the public catalogue routes and the operator-only booking
// desk routes. Mutating routes additionally require an Idempotency-Key.
func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	router.Use(h.Auth.Handle)

	registerDocsRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	desk := api.Group("", RequireOperator)
	write := desk.Group("", RequireIdempotencyKey)

	if h.Fleet != nil {
		api.GET("/vehicles", h.Fleet.Search)
		api.GET("/vehicles/:id", h.Fleet.Get)
		api.GET("/vehicles/:id/availability", h.Fleet.Availability)
		desk.GET("/vehicles/:id/bookings", h.Fleet.Bookings)
		write.PUT("/vehicles/:id", h.Fleet.Save)
	}
	if h.Pricing != nil {
		api.POST("/pricing/preview", h.Pricing.Preview)
	}
	if h.Booking != nil {
		desk.GET("/bookings/:id", h.Booking.Get)
		desk.GET("/bookings", h.Booking.GetByNumber)
		write.POST("/bookings", h.Booking.Create)
		write.PATCH("/bookings/:id", h.Booking.Update)
		write.POST("/bookings/:id/status", h.Booking.Transition)
		write.POST("/bookings/:id/cancel", h.Booking.Cancel)
		write.POST("/bookings/:id/refunds", h.Booking.Refund)
	}
	if h.Customers != nil {
		desk.GET("/customers", h.Customers.Search)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
