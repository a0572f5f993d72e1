package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/adapters/database"
	"github.com/zatekoja/clinicportal/internal/adapters/search"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/clinicportal/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/clinicportal/internal/infrastructure/notifications"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/internal/nlp"
	"github.com/zatekoja/clinicportal/pkg/config"
)

type seedPatient struct {
	input    services.PatientInput
	sessions []services.PrescriptionRequest
}

type seedDoctor struct {
	username string
	profile  services.DoctorProfile
	patients []seedPatient
}

var seedData = []seedDoctor{
	{
		username: "drjane",
		profile:  services.DoctorProfile{Name: "Jane Okafor", Qualifications: "MBBS, FWACP"},
		patients: []seedPatient{
			{
				input: services.PatientInput{Name: "Adaeze Nwosu", Phone: "+2348031234567", Age: "34", Gender: "female", Address: "12 Allen Avenue, Ikeja"},
				sessions: []services.PrescriptionRequest{
					{Diagnosis: "Uncomplicated malaria", MedicationPlan: "take artemether lumefantrine twice a day for three days"},
					{Diagnosis: "Tension headache", MedicationPlan: "paracetamol 1 x day 5 days"},
				},
			},
			{
				input: services.PatientInput{Name: "Tunde Bakare", Email: "tunde@example.com", Age: "58", Gender: "male"},
				sessions: []services.PrescriptionRequest{
					{Diagnosis: "Type 2 diabetes", MedicationPlan: "metformin 850mg twice daily"},
				},
			},
		},
	},
	{
		username: "drmusa",
		profile:  services.DoctorProfile{Name: "Musa Ibrahim", Qualifications: "MBBS"},
		patients: []seedPatient{
			{
				input: services.PatientInput{Name: "Grace Eze", Phone: "+2348029876543", Email: "grace@example.com", Age: "7", Gender: "female", Notes: "Penicillin allergy"},
				sessions: []services.PrescriptionRequest{
					{Diagnosis: "Bacterial conjunctivitis", MedicationPlan: "apply chloramphenicol ointment every 6 hours for 5 days"},
				},
			},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("seed", cfg.Server.Env)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()
	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				diagnosis_sessions,
				patients,
				doctors
			CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	doctorRepo := database.NewDoctorAdapter(pgClient)
	patientRepo := database.NewPatientAdapter(pgClient)
	sessionRepo := database.NewDiagnosisSessionAdapter(pgClient)

	parser := services.NewMedicationParseService(nlp.NewParserFromConfig(cfg.NLP), nil, 0, nil)
	doctorService := services.NewDoctorService(doctorRepo)
	patientService := services.NewPatientService(patientRepo, sessionRepo)
	prescriptionService := services.NewPrescriptionService(patientRepo, sessionRepo, parser, notifications.ConsoleNotifier{})

	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable; seeded sessions will not be searchable")
		} else {
			adapter := search.NewTypesenseAdapter(tsClient)
			if err := adapter.InitSchema(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to init Typesense schema")
			} else {
				prescriptionService.SetSearch(adapter)
			}
		}
	}

	var patientCount, sessionCount int
	for _, d := range seedData {
		doctor, err := doctorService.SaveProfile(ctx, d.username, d.profile)
		if err != nil {
			log.Fatal().Err(err).Str("doctor", d.username).Msg("failed to seed doctor")
		}

		for _, sp := range d.patients {
			patient, err := patientService.Create(ctx, doctor.Username, sp.input)
			if err != nil {
				log.Error().Err(err).Str("patient", sp.input.Name).Msg("failed to seed patient")
				continue
			}
			patientCount++

			for _, req := range sp.sessions {
				req.PatientID = patient.ID
				if _, err := prescriptionService.SaveSession(ctx, doctor, req); err != nil {
					log.Error().Err(err).Str("patient_id", patient.ID).Msg("failed to seed session")
					continue
				}
				sessionCount++
			}
		}
	}

	log.Info().
		Int("doctors", len(seedData)).
		Int("patients", patientCount).
		Int("sessions", sessionCount).
		Msg("seeding complete")
}
