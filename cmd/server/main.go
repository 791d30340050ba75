package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/permupdate/permtrack/backend/internal/analytics"
	"github.com/permupdate/permtrack/backend/internal/api"
	"github.com/permupdate/permtrack/backend/internal/auth"
	"github.com/permupdate/permtrack/backend/internal/cache"
	"github.com/permupdate/permtrack/backend/internal/config"
	"github.com/permupdate/permtrack/backend/internal/metrics"
	"github.com/permupdate/permtrack/backend/internal/predictor"
	"github.com/permupdate/permtrack/backend/internal/staleness"
	"github.com/permupdate/permtrack/backend/internal/storage"
	"github.com/permupdate/permtrack/backend/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const dashboardCacheTTL = 60 * time.Second

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting permtrack backend server")

	// Create context for background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create the aggregate store
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	// Create metrics registry
	m := metrics.New()

	// Create the analytics accessor with the documented fallback percentiles
	accessor := analytics.NewAccessor(store, m, analytics.Defaults{
		P30Days: cfg.DefaultP30Days,
		P50Days: cfg.DefaultP50Days,
		P80Days: cfg.DefaultP80Days,
	}, log.Logger)

	// Create the queue-position predictor
	pred := predictor.New(accessor, store, m, predictor.Config{
		LetterWeight:      cfg.LetterWeight,
		DayWeight:         cfg.DayWeight,
		UpperBoundMargin:  cfg.UpperBoundMargin,
		DefaultWeeklyRate: cfg.DefaultWeeklyRate,
		RateWindowWeeks:   cfg.RateWindowWeeks,
		MinRateSamples:    cfg.MinRateSamples,
		ConfidenceLevel:   cfg.ConfidenceLevel,
	}, log.Logger)

	// Create the dashboard response cache
	responseCache := cache.NewResponseCache(dashboardCacheTTL)

	// Create the staleness monitor for the nightly aggregation feeds
	monitor := staleness.NewMonitor(store, cfg.StalenessCheckInterval, cfg.StalenessThreshold, log.Logger)
	go monitor.Start(ctx)

	// Create handlers
	predictionHandler := api.NewPredictionHandler(pred, accessor, store, log.Logger)
	dashboardHandler := api.NewDashboardHandler(accessor, responseCache, log.Logger)
	adminHandler := api.NewAdminHandler(responseCache, log.Logger)

	// The predictor endpoint is the expensive path, give it its own limiter
	predictLimiter := middleware.NewRateLimiter(cfg.PredictRatePerMin, cfg.PredictBurst)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler(monitor))
	r.Get("/metrics", m.Handler())

	// Add auth middleware for protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Route("/api/predictions", func(r chi.Router) {
			r.With(predictLimiter.Handler).Post("/from-date", predictionHandler.Predict)
			r.Get("/percentile-estimate", predictionHandler.PercentileEstimate)
			r.Get("/expected-time", predictionHandler.ExpectedTime)

			// Audit trail is for operators only
			r.Group(func(r chi.Router) {
				r.Use(api.RequireAdmin)
				r.Get("/requests", predictionHandler.ListRequests)
				r.Get("/requests/{date}/{id}", predictionHandler.GetRequest)
			})
		})

		r.Route("/api/data", func(r chi.Router) {
			r.Get("/dashboard", dashboardHandler.GetDashboard)
			r.Get("/daily-volume", dashboardHandler.GetDailyVolume)
			r.Get("/weekly-volumes", dashboardHandler.GetWeeklyVolumes)
			r.Get("/monthly-volumes", dashboardHandler.GetMonthlyVolumes)
			r.Get("/monthly-status", dashboardHandler.GetMonthlyStatus)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(api.RequireAdmin)
			r.Post("/cache/purge", adminHandler.PurgeCache)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the staleness monitor
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler reports liveness plus the freshness of the data feeds
func healthHandler(monitor *staleness.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := "fresh"
		if monitor.AnyStale() {
			data = "stale"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"permtrack-backend","data":"%s"}`, data)
	}
}
