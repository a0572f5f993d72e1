package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/adapters/search"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/pkg/config"
)

func main() {
	var (
		reset        bool
		intervalFlag string
		workers      int
		patientID    string
	)
	flag.BoolVar(&reset, "reset", false, "delete the prescriptions collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.IntVar(&workers, "workers", 3, "number of concurrent workers")
	flag.StringVar(&patientID, "patient", "", "reindex a single patient")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("prescription-indexer", cfg.Server.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset, workers, patientID); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool, workers int, patientID string) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", search.CollectionName).Msg("deleting collection before reindex")
		if _, err := tsClient.Client().Collection(search.CollectionName).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	svc := services.NewReindexService(
		database.NewPatientAdapter(pgClient),
		database.NewDiagnosisSessionAdapter(pgClient),
		adapter,
		workers,
	)

	start := time.Now()
	var summary *services.ReindexSummary
	if patientID != "" {
		summary, err = svc.ReindexPatient(ctx, patientID)
	} else {
		summary, err = svc.ReindexAll(ctx)
	}
	if err != nil {
		return err
	}

	log.Info().
		Int("patients", summary.Patients).
		Int("indexed", summary.Indexed).
		Int("failed", summary.Failed).
		Dur("took", time.Since(start)).
		Msg("indexing complete")
	return nil
}
