package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initialized")

	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled
	// for local testing. In production, the connection string should be
	// provided with the correct SSL settings.
	if cfg.IsDevelopment() && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, err
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Initialize the recommendation provider client
	provider := service.NewOpenAIClient(service.ProviderConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
		Timeout:     time.Duration(cfg.OpenAITimeoutSec) * time.Second,
	}, logger)

	// 4. Initialize the roster events publisher
	var publisher pubsub.Publisher = pubsub.NoopPublisher{}
	if cfg.GCPProjectID != "" {
		eventPublisher, err := pubsub.NewEventPublisher(context.Background(), cfg)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		publisher = eventPublisher
	}

	// 5. Initialize repositories & services & handlers
	courseRepo := repository.NewCourseRepo(pool, logger)
	enrollRepo := repository.NewEnrollmentRepo(pool)
	usageRepo := repository.NewUsageRepo(pool)
	chatRepo := repository.NewChatRepo(pool)

	courseSvc := service.NewCourseService(courseRepo, enrollRepo)
	enrollmentSvc := service.NewEnrollmentService(enrollRepo, courseRepo, publisher, logger)
	ledger := service.NewQuotaLedger(usageRepo, cfg.RecommendationMaxRequests, logger)
	recommendationSvc := service.NewRecommendationService(courseRepo, ledger, provider, logger)
	chatSvc := service.NewChatService(chatRepo, logger)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, logger)
	courseHandler := handler.NewCourseHandler(courseSvc, enrollmentHandler, validate, logger)
	recommendationHandler := handler.NewRecommendationHandler(recommendationSvc, ledger, cfg, validate, logger)
	chatHandler := handler.NewChatHandler(chatSvc, validate, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(cfg.JWTSecret)

	// 7. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	courseHandler.RegisterRoutes(apiV1Mux, optionalAuthMiddleware)
	recommendationHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	chatHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		http.Redirect(w, r, "/v1/"+rest, http.StatusMovedPermanently)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}
