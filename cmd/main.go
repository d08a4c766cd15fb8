package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/safevault/safevault/internal/audit"
	"github.com/safevault/safevault/internal/handlers"
	"github.com/safevault/safevault/internal/jwt"
	"github.com/safevault/safevault/internal/logger"
	"github.com/safevault/safevault/internal/middlewares"
	"github.com/safevault/safevault/internal/migrations"
	"github.com/safevault/safevault/internal/models"
	"github.com/safevault/safevault/internal/repositories"
	"github.com/safevault/safevault/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/safevault/safevault/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title safevault API
// @version 1.0.0
// @description User registration, authentication and user management with input sanitization
// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// config holds all application settings read from the environment.
type config struct {
	appHost  string
	appPort  string
	logLevel string

	pgHost         string
	pgPort         int
	pgUser         string
	pgPassword     string
	pgDB           string
	pgMaxOpenConns int
	pgMaxIdleConns int

	redisHost     string
	redisPort     int
	redisDB       int
	redisPassword string
	cacheTTL      time.Duration

	kafkaBrokers []string
	kafkaTopic   string

	jwtSecretKey string
	jwtExp       time.Duration
	jwtIssuer    string
	jwtAudience  string

	// authMode selects the access-gate strategy: "jwt" or "static".
	// The static mode guards every protected route with one shared
	// bearer value and attaches no claims downstream.
	authMode    string
	staticToken string
}

// parseConfig loads environment variables from a file and returns the
// application configuration.
func parseConfig(path string) (cfg config, err error) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	cfg.appHost = getEnv("APP_HOST", "localhost")
	cfg.appPort = getEnv("APP_PORT", "8080")
	cfg.logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	cfg.pgHost = getEnv("POSTGRES_HOST", "localhost")
	cfg.pgUser = getEnv("POSTGRES_USER", "user")
	cfg.pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	cfg.pgDB = getEnv("POSTGRES_DB", "safevault")
	if cfg.pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if cfg.pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if cfg.pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}

	// Redis config
	cfg.redisHost = getEnv("REDIS_HOST", "localhost")
	if cfg.redisPort, err = strconv.Atoi(getEnv("REDIS_PORT", "6379")); err != nil {
		return
	}
	if cfg.redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	cfg.redisPassword = getEnv("REDIS_PASSWORD", "")
	cacheTTLSecond, err := strconv.Atoi(getEnv("USER_CACHE_TTL_SECOND", "300"))
	if err != nil {
		return
	}
	cfg.cacheTTL = time.Duration(cacheTTLSecond) * time.Second

	// Kafka config, audit publishing is disabled when no brokers are set
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.kafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.kafkaTopic = getEnv("KAFKA_AUDIT_TOPIC", "safevault.auth.events")

	// Token config
	cfg.jwtSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	jwtExpSecond, err := strconv.Atoi(getEnv("JWT_EXP_SECOND", "3600"))
	if err != nil {
		return
	}
	cfg.jwtExp = time.Duration(jwtExpSecond) * time.Second
	cfg.jwtIssuer = getEnv("JWT_ISSUER", "safevault")
	cfg.jwtAudience = getEnv("JWT_AUDIENCE", "safevault-clients")

	// Access gate config
	cfg.authMode = getEnv("AUTH_MODE", "jwt")
	cfg.staticToken = getEnv("STATIC_AUTH_TOKEN", "")
	if cfg.authMode != "jwt" && cfg.authMode != "static" {
		err = fmt.Errorf("unknown AUTH_MODE %q", cfg.authMode)
		return
	}
	if cfg.authMode == "static" && cfg.staticToken == "" {
		err = fmt.Errorf("AUTH_MODE=static requires STATIC_AUTH_TOKEN")
		return
	}

	return
}

// run initializes the logger, database, cache, audit publisher, and HTTP
// server. It sets up routes, applies middleware, and handles graceful
// shutdown.
func run(ctx context.Context, cfg config) error {
	// Initialize logger
	if err := logger.Initialize(cfg.logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.logLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.pgUser, cfg.pgPassword, cfg.pgHost, cfg.pgPort, cfg.pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Errorw("PostgreSQL connection error", "error", err)
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.pgMaxOpenConns)
	db.SetMaxIdleConns(cfg.pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Log.Errorw("PostgreSQL ping failed", "error", err)
		return err
	}

	// Apply migrations
	if err := migrations.Up(ctx, db.DB); err != nil {
		logger.Log.Errorw("migrations failed", "error", err)
		return err
	}

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.redisHost, cfg.redisPort),
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Log.Errorw("Redis connection error", "error", err)
		return err
	}
	defer rdb.Close()

	// Audit publisher, optional
	var events services.EventPublisher
	if len(cfg.kafkaBrokers) > 0 {
		publisher := audit.NewPublisher(cfg.kafkaBrokers, cfg.kafkaTopic)
		defer publisher.Close()
		events = publisher
		logger.Log.Infof("Audit publishing enabled on topic %s", cfg.kafkaTopic)
	}

	// Initialize token service
	tokenSvc := jwt.New(
		jwt.WithSecretKey(cfg.jwtSecretKey),
		jwt.WithExpiration(cfg.jwtExp),
		jwt.WithIssuer(cfg.jwtIssuer),
		jwt.WithAudience(cfg.jwtAudience),
	)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	cachedReadRepo := repositories.NewCachedUserReadRepository(userReadRepo, rdb, cfg.cacheTTL)

	// Initialize services
	authService := services.NewAuthService(cachedReadRepo, userWriteRepo, tokenSvc, events)
	userService := services.NewUserService(userReadRepo, userWriteRepo, cachedReadRepo)

	// Initialize handlers
	registerHandler := handlers.NewRegisterHandler(authService)
	loginHandler := handlers.NewLoginHandler(authService)
	profileHandler := handlers.NewProfileHandler()
	dashboardHandler := handlers.NewAdminDashboardHandler()
	listUsersHandler := handlers.NewListUsersHandler(userService)
	getUserHandler := handlers.NewGetUserHandler(userService)
	updateUserHandler := handlers.NewUpdateUserHandler(userService)
	deleteUserHandler := handlers.NewDeleteUserHandler(userService)

	// Access gate, the deployment picks exactly one strategy
	gate := middlewares.AuthMiddleware(tokenSvc)
	if cfg.authMode == "static" {
		gate = middlewares.StaticTokenMiddleware(cfg.staticToken)
	}

	// Role gates only apply in jwt mode, the static gate carries no claims
	requireRoles := func(roles ...models.Role) func(http.Handler) http.Handler {
		if cfg.authMode == "static" {
			return func(next http.Handler) http.Handler { return next }
		}
		return middlewares.RequireRoles(roles...)
	}

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(middlewares.OptionalAuthMiddleware(tokenSvc)).Post("/register", registerHandler)
		r.Post("/login", loginHandler)

		// Protected routes behind the access gate
		r.Group(func(r chi.Router) {
			r.Use(gate)

			r.With(requireRoles(models.RoleUser, models.RoleAdmin)).Get("/users/profile", profileHandler)

			r.Group(func(r chi.Router) {
				r.Use(requireRoles(models.RoleAdmin))
				r.Get("/admin/dashboard", dashboardHandler)
				r.Get("/users", listUsersHandler)
				r.Get("/users/{id}", getUserHandler)
				r.Put("/users/{id}", updateUserHandler)
				r.Delete("/users/{id}", deleteUserHandler)
			})
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", cfg.appHost, cfg.appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.appHost, cfg.appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", cfg.appHost, cfg.appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
