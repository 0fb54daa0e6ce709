package server

import (
	"fmt"
	"net/http"
	"time"

	"tecniservice/internal/config"
	"tecniservice/internal/database"
	custommiddleware "tecniservice/internal/middleware"
	"tecniservice/internal/repository"
	"tecniservice/internal/service"
	"tecniservice/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *database.Service) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigin, cfg.IsDevelopment()))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger, cfg.IsDevelopment()))

	// Health check endpoint
	router.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithSuccess(w, http.StatusOK, map[string]interface{}{
			"status":   "OK",
			"database": db.Health(r.Context()),
		}, "")
	})

	// Unmatched routes get the 404 envelope instead of the default page
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})

	// Initialize repositories
	serviceRepo := repository.NewServiceRepository(db.DB())
	requestRepo := repository.NewRequestRepository(db.DB())

	// Initialize stores
	catalogService := service.NewCatalogService(serviceRepo)
	requestService := service.NewRequestService(requestRepo)

	// Initialize handlers
	serviceHandler := transport.NewServiceHandler(catalogService, logger)
	requestHandler := transport.NewRequestHandler(requestService, logger)

	// The public submission form gets a Redis throttle when enabled
	var redisClient *redis.Client
	var submitLimiter func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		submitLimiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
			KeyPrefix:         "ratelimit:solicitudes",
		}, logger)
	}

	// Register routes
	serviceHandler.RegisterRoutes(router)
	requestHandler.RegisterRoutes(router, submitLimiter)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
