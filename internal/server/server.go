package server

import (
	"context"
	"net/http"

	"github.com/adamswbrown/gymproject-sub000/internal/audit"
	"github.com/adamswbrown/gymproject-sub000/internal/auth"
	"github.com/adamswbrown/gymproject-sub000/internal/booking"
	"github.com/adamswbrown/gymproject-sub000/internal/cache"
	"github.com/adamswbrown/gymproject-sub000/internal/clock"
	"github.com/adamswbrown/gymproject-sub000/internal/config"
	"github.com/adamswbrown/gymproject-sub000/internal/schedule"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(db *sqlx.DB, cfg *config.Config, redisClient *redis.Client) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	clk := clock.Real()
	auditRepo := audit.NewRepository()

	sessionRepo := schedule.NewRepository(db)
	bookingRepo := booking.NewRepository(db)

	scheduleService := schedule.NewService(db, sessionRepo, bookingRepo, auditRepo, clk)
	bookingService := booking.NewService(db, bookingRepo, sessionRepo, auditRepo, clk)

	var scheduleCache *cache.Cache
	if redisClient != nil {
		scheduleCache = cache.New(redisClient, "classbook", cfg.ScheduleCacheTTL)
	}

	scheduleHandler := schedule.NewHandler(scheduleService, scheduleCache)
	bookingHandler := booking.NewHandler(bookingService)

	router.GET("/schedule", scheduleHandler.GetSchedule)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.POST("/sessions/:sessionID/reserve", bookingHandler.Reserve)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.Cancel)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole("admin"))
	{
		admin.PATCH("/sessions/:sessionID/capacity", scheduleHandler.UpdateSessionCapacity)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{router: router}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
