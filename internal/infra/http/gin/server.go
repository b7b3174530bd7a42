package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"rentbazaar/internal/infra/config"
	"rentbazaar/internal/infra/obs"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	ListMine(c *gin.Context)
	ListOwned(c *gin.Context)
	Transition(c *gin.Context)
	RequestExtension(c *gin.Context)
	DecideExtension(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type ListingHTTP interface {
	Create(c *gin.Context)
	Activate(c *gin.Context)
	Suspend(c *gin.Context)
	UpdateRates(c *gin.Context)
	BlockDates(c *gin.Context)
	Calendar(c *gin.Context)
	Quote(c *gin.Context)
	ListOwned(c *gin.Context)
}

type Handlers struct {
	Booking             BookingHTTP
	Listing             ListingHTTP
	PrincipalMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-User-ID", "X-User-Role"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.PrincipalMiddleware != nil {
		router.Use(h.PrincipalMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.GET("/bookings/:ref", h.Booking.Get)
		api.GET("/me/bookings", h.Booking.ListMine)
		api.GET("/owner/bookings", h.Booking.ListOwned)
		api.POST("/bookings/:ref/transition", h.Booking.Transition)
		api.POST("/bookings/:ref/extensions", h.Booking.RequestExtension)
		api.POST("/bookings/:ref/extensions/:ext/decision", h.Booking.DecideExtension)
		api.POST("/bookings/:ref/photos", h.Booking.UploadPhoto)
	}
	if h.Listing != nil {
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id/calendar", h.Listing.Calendar)
		api.GET("/listings/:id/quote", h.Listing.Quote)
		api.POST("/listings/:id/activate", h.Listing.Activate)
		api.POST("/listings/:id/suspend", h.Listing.Suspend)
		api.PUT("/listings/:id/rates", h.Listing.UpdateRates)
		api.POST("/listings/:id/blocked-dates", h.Listing.BlockDates)
		api.GET("/owner/listings", h.Listing.ListOwned)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
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
