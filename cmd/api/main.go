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

	"github.com/zatekoja/clinicportal/internal/adapters/cache"
	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/adapters/events"
	"github.com/zatekoja/clinicportal/internal/adapters/search"
	"github.com/zatekoja/clinicportal/internal/api/handlers"
	"github.com/zatekoja/clinicportal/internal/api/routes"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/domain/repositories"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/redis"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/clinicportal/internal/infrastructure/notifications"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/internal/nlp"
	"github.com/zatekoja/clinicportal/pkg/config"
)

const localCacheSize = 4096

type stores struct {
	doctors  repositories.DoctorRepository
	patients repositories.PatientRepository
	sessions repositories.DiagnosisSessionRepository
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry; continuing without export")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	if cfg.Delivery.UsesDefaultSecret() {
		log.Warn().Msg("DELIVERY_TOKEN_SECRET is not set; delivery links are signed with the development secret")
	}
	if cfg.Admin.UsesDefaultCredentials() {
		log.Warn().Msg("ADMIN_USER / ADMIN_PASS are not set; the admin dashboard uses development credentials")
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error().Err(err).Msg("error closing storage")
		}
	}()

	// Redis backs the parse cache, rate limits and events; without it each
	// falls back to process memory.
	var (
		cacheProvider providers.CacheProvider
		eventBus      providers.EventBus
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Redis client; continuing without it")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "clinic:")
			eventBus = events.NewRedisEventBus(redisClient)
		}
	}
	if cacheProvider == nil {
		local, err := cache.NewLocalAdapter(localCacheSize)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create local cache")
		}
		cacheProvider = local
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
	}
	defer func() {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}()

	var searchProvider providers.PrescriptionSearchProvider
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize Typesense client; prescription search disabled")
		} else {
			adapter := search.NewTypesenseAdapter(tsClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			}
			searchProvider = adapter
		}
	}

	notifier, err := newNotifier(cfg.Notifications)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notifier")
	}
	phoneFirst := cfg.Notifications.Channel == "whatsapp"

	parser := nlp.NewParserFromConfig(cfg.NLP)
	parseService := services.NewMedicationParseService(parser, cacheProvider, cfg.NLP.CacheTTL, metrics)

	doctorService := services.NewDoctorService(st.doctors)
	patientService := services.NewPatientService(st.patients, st.sessions)

	prescriptionService := services.NewPrescriptionService(st.patients, st.sessions, parseService, notifier)
	prescriptionService.SetEventBus(eventBus)
	prescriptionService.SetPhoneFirst(phoneFirst)
	if searchProvider != nil {
		prescriptionService.SetSearch(searchProvider)
	}

	deliveryService := services.NewDeliveryService(cfg.Delivery.TokenSecret, st.patients, notifier)
	deliveryService.SetEventBus(eventBus)
	deliveryService.SetPhoneFirst(phoneFirst)

	dashboardService := services.NewDashboardService(st.doctors, st.patients, st.sessions, deliveryService, notifications.WhatsAppLink)

	base := cfg.Server.PublicBaseURL
	router := routes.NewRouter(routes.Handlers{
		Medication:   handlers.NewMedicationHandler(parseService),
		Patient:      handlers.NewPatientHandler(patientService, prescriptionService, deliveryService, base),
		Prescription: handlers.NewPrescriptionHandler(prescriptionService),
		Delivery:     handlers.NewDeliveryHandler(deliveryService, base),
		Doctor:       handlers.NewDoctorHandler(doctorService),
		Admin:        handlers.NewAdminHandler(dashboardService, base),
		SSE:          handlers.NewSSEHandler(eventBus, patientService),
	}, doctorService, cacheProvider, cfg.Admin, cfg.Server, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: patient event streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server stopped")
}

// openStores connects to PostgreSQL when enabled, otherwise keeps everything in memory.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if !cfg.Database.Enabled {
		log.Warn().Msg("DB_ENABLED is false; patients are kept in memory and lost on restart")
		mem := database.NewMemoryStore()
		return &stores{
			doctors:  mem.Doctors(),
			patients: mem.Patients(),
			sessions: mem.Sessions(),
			close:    func() error { return nil },
		}, nil
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := pgClient.EnsureSchema(ctx); err != nil {
		pgClient.Close()
		return nil, err
	}
	return &stores{
		doctors:  database.NewDoctorAdapter(pgClient),
		patients: database.NewPatientAdapter(pgClient),
		sessions: database.NewDiagnosisSessionAdapter(pgClient),
		close:    pgClient.Close,
	}, nil
}

func newNotifier(cfg config.NotificationConfig) (providers.Notifier, error) {
	switch cfg.Channel {
	case "whatsapp":
		sender, err := notifications.NewWhatsAppSender(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("sending prescriptions over WhatsApp")
		return sender, nil
	case "console", "":
		return notifications.ConsoleNotifier{}, nil
	default:
		return nil, fmt.Errorf("unknown NOTIFY_CHANNEL %q", cfg.Channel)
	}
}
