package server

import (
	"fmt"
	"net/http"
	"time"

	"bookshop/internal/config"
	"bookshop/internal/database"
	custommiddleware "bookshop/internal/middleware"
	"bookshop/internal/repository"
	"bookshop/internal/service"
	"bookshop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	dbService   *database.Service
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService *database.Service) *Server {
	db := dbService.DB()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.RequestLogging(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := dbService.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	bookRepo := repository.NewBookRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg.JWT.Secret)
	walletService := service.NewWalletService(userRepo, logger)
	bookService := service.NewBookService(bookRepo, taxonomyRepo, cfg.Catalog.FuzzyMaxDistance, logger)
	cartService := service.NewCartService(cartRepo, bookRepo, orderRepo, logger)
	checkoutService := service.NewCheckoutService(cartRepo, bookRepo, orderRepo, walletService, logger)
	libraryService := service.NewLibraryService(orderRepo, bookRepo, logger)
	favoriteService := service.NewFavoriteService(favoriteRepo, bookRepo, logger)

	// Initialize handlers
	userHandler := transport.NewUserHandler(authService, logger)
	bookHandler := transport.NewBookHandler(bookService, taxonomyRepo, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	walletHandler := transport.NewWalletHandler(walletService, logger)
	checkoutHandler := transport.NewCheckoutHandler(checkoutService, orderRepo, logger)
	libraryHandler := transport.NewLibraryHandler(libraryService, logger)
	favoriteHandler := transport.NewFavoriteHandler(favoriteService, logger)

	// Auth and role middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminOnly := custommiddleware.RequireAdmin(logger)
	sellerOnly := custommiddleware.RequireSeller(logger)

	// Rate limiters for money-moving endpoints
	checkoutLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:checkout",
	}, logger)
	topUpLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 20,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:topup",
	}, logger)

	// Register routes
	userHandler.RegisterRoutes(router, authMiddleware)
	bookHandler.RegisterRoutes(router, authMiddleware, sellerOnly)
	cartHandler.RegisterRoutes(router, authMiddleware)
	walletHandler.RegisterRoutes(router, authMiddleware, topUpLimiter)
	checkoutHandler.RegisterRoutes(router, authMiddleware, adminOnly, checkoutLimiter)
	libraryHandler.RegisterRoutes(router, authMiddleware)
	favoriteHandler.RegisterRoutes(router, authMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		dbService:   dbService,
		redisClient: redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.dbService != nil {
		if err := s.dbService.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
