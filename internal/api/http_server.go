package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"homebooking/internal/config"
	"homebooking/internal/models"
	"homebooking/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Streams is the snapshot side of the store, served as SSE.
type Streams interface {
	Services(ctx context.Context) <-chan []models.Service
	Categories(ctx context.Context) <-chan []models.ServiceCategory
	Bookings(ctx context.Context) <-chan []models.Booking
}

// Deps are the services behind the HTTP routes. Drafts, Notifications and
// Ready may be nil.
type Deps struct {
	Streams       Streams
	Catalog       *service.CatalogService
	Bookings      *service.BookingService
	Flow          *service.BookingFlow
	Users         *service.UserService
	Drafts        *service.DraftService
	Notifications *service.NotificationService
	Ready         func(ctx context.Context) error
	Now           func() time.Time
}

// HTTPServer exposes the JSON API alongside the gRPC service.
type HTTPServer struct {
	cfg    config.APIConfig
	deps   Deps
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	srv := &HTTPServer{cfg: cfg, deps: deps}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(logger))
	engine.Use(cors.New(corsConfig(cfg)))
	engine.Use(NewHTTPAuth(cfg).Middleware())
	srv.routes(engine)
	srv.engine = engine

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	v1 := r.Group("/api/v1")

	v1.GET("/categories", s.handleCategories)

	services := v1.Group("/services")
	services.GET("", s.handleListServices)
	services.GET("/featured", s.handleFeaturedServices)
	services.GET("/:id", s.handleGetService)
	services.POST("", s.handleCreateService)
	services.PUT("/:id", s.handleUpdateService)
	services.DELETE("/:id", s.handleDeleteService)
	services.POST("/:id/activate", s.handleSetServiceActive(true))
	services.POST("/:id/deactivate", s.handleSetServiceActive(false))

	v1.GET("/slots", s.handleSlots)

	bookings := v1.Group("/bookings")
	bookings.GET("", s.handleListBookings)
	bookings.GET("/mine", s.handleMyBookings)
	bookings.GET("/:id", s.handleGetBooking)
	bookings.POST("", s.handleCreateBooking)
	bookings.PATCH("/:id/status", s.handleUpdateStatus)
	bookings.POST("/:id/advance", s.handleAdvanceBooking)

	admin := v1.Group("/admin")
	admin.GET("/stats", s.handleAdminStats)
	admin.GET("/bookings/export", s.handleExportBookings)

	v1.GET("/dashboard", s.handleDashboard)

	auth := v1.Group("/auth")
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.handleLogout)
	auth.GET("/me", s.handleMe)

	drafts := v1.Group("/drafts")
	drafts.GET("/:userId", s.handleGetDraft)
	drafts.PUT("/:userId", s.handleSaveDraft)
	drafts.DELETE("/:userId", s.handleClearDraft)

	notifications := v1.Group("/notifications")
	notifications.GET("/:userId", s.handleListNotifications)
	notifications.POST("/:userId/:id/read", s.handleMarkRead)

	stream := v1.Group("/stream")
	stream.GET("/services", s.handleStreamServices)
	stream.GET("/categories", s.handleStreamCategories)
	stream.GET("/bookings", s.handleStreamBookings)
}

func corsConfig(cfg config.APIConfig) cors.Config {
	origins := cfg.CORS.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}

	headers := []string{"Origin", "Content-Type", "Authorization", requestIDHeader}
	for _, h := range []string{cfg.Auth.HeaderAPIKey, cfg.Auth.HeaderExtra} {
		if h != "" {
			headers = append(headers, h)
		}
	}

	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     headers,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
