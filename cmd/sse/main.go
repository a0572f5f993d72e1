package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/adapters/events"
	"github.com/zatekoja/clinicportal/internal/api/handlers"
	"github.com/zatekoja/clinicportal/internal/api/middleware"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/pkg/config"
)

// The standalone event server fans patient events out from Redis so long-lived
// streams can be scaled apart from the API. It needs the same Postgres the
// API writes to for the ownership check.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("patient-events", cfg.Server.Env)

	if !cfg.Redis.Enabled || !cfg.Database.Enabled {
		log.Fatal().Msg("the event server requires REDIS_ENABLED and DB_ENABLED")
	}

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Redis client")
	}
	defer redisClient.Close()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	doctorService := services.NewDoctorService(database.NewDoctorAdapter(pgClient))
	patientService := services.NewPatientService(
		database.NewPatientAdapter(pgClient),
		database.NewDiagnosisSessionAdapter(pgClient),
	)
	sseHandler := handlers.NewSSEHandler(eventBus, patientService)
	doctor := middleware.RequireDoctor(doctorService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /api/patients/{id}/events", doctor(sseHandler.StreamPatientEvents))
	mux.HandleFunc("GET /api/stream/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"connected_clients": %d}`, sseHandler.ClientCount())
	})

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(middleware.ParseAllowedOrigins(cfg.Server.AllowedOrigins))(handler)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("event server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("event server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("event server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("error closing event bus")
	}
	log.Info().Msg("event server stopped")
}
