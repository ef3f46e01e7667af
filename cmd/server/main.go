package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/warehop/bulkpick-api/internal/config"
	"github.com/warehop/bulkpick-api/internal/handlers"
	"github.com/warehop/bulkpick-api/internal/middleware"
	"github.com/warehop/bulkpick-api/internal/migration"
	"github.com/warehop/bulkpick-api/internal/replication"
	"github.com/warehop/bulkpick-api/internal/repository"
	"github.com/warehop/bulkpick-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config     *config.Config
	db         *sql.DB
	replicaDB  *sql.DB
	replicator *replication.Replicator
	logger     zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize primary database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations on the primary.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize the optional mobile replica pool. A failed ping is
	// logged but does not stop the server: replication stays
	// best-effort and retries per attempt.
	var replicaDB *sql.DB
	if cfg.Replication.DatabaseURL != "" {
		replicaDB, err = sql.Open("postgres", cfg.Replication.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open replica database")
		}
		defer replicaDB.Close()
		if err := replicaDB.Ping(); err != nil {
			logger.Warn().Err(err).Msg("Replica database unreachable at startup")
		}
	} else {
		logger.Warn().Msg("No replica database configured, replication is disabled")
	}

	// Create the application instance.
	app := &application{
		config:    cfg,
		db:        db,
		replicaDB: replicaDB,
		logger:    logger,
	}
	app.replicator = app.initReplicator()

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

func (app *application) initReplicator() *replication.Replicator {
	provider := replication.NewPoolConnProvider(
		app.replicaDB,
		app.config.Replication.ConnectMaxRetries,
		app.config.Replication.ConnectInterval,
	)

	var outbox replication.FailureRecorder
	if app.config.Replication.StrictMode {
		outbox = replication.NewOutbox(app.db)
	}

	return replication.New(
		provider,
		repository.NewPickRepository(app.db),
		replication.NewBTDocumentNumbers(),
		outbox,
		app.logger,
		replication.Options{
			LocationKey: app.config.Replication.LocationKey,
			StrictMode:  app.config.Replication.StrictMode,
		},
	)
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	pickRepo := repository.NewPickRepository(app.db)

	authHandler := handlers.NewAuthHandler(app.db, app.config, logger)
	pickHandler := handlers.NewPickHandler(pickRepo, app.replicator, logger)
	replHandler := handlers.NewReplicationHandler(app.replicator, logger)

	return routes.NewRouter(authHandler, pickHandler, replHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
