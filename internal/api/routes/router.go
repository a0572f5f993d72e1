package routes

import (
	"net"
	"net/http"
	"time"

	"github.com/zatekoja/clinicportal/internal/api/handlers"
	"github.com/zatekoja/clinicportal/internal/api/middleware"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/pkg/config"
)

// Public delivery links are guessable only by token; cap attempts per client.
const (
	deliveryRateLimit  = 30
	deliveryRateWindow = time.Minute
)

// Handlers groups every route handler. SSE is optional.
type Handlers struct {
	Medication   *handlers.MedicationHandler
	Patient      *handlers.PatientHandler
	Prescription *handlers.PrescriptionHandler
	Delivery     *handlers.DeliveryHandler
	Doctor       *handlers.DoctorHandler
	Admin        *handlers.AdminHandler
	SSE          *handlers.SSEHandler
}

// Router holds all route handlers
type Router struct {
	mux      *http.ServeMux
	handlers Handlers
	doctors  middleware.DoctorLookup
	cache    providers.CacheProvider
	admin    config.AdminConfig
	origins  []string
	proxies  []*net.IPNet
	metrics  *observability.Metrics
}

// NewRouter creates a new router. cache and metrics may be nil.
func NewRouter(
	h Handlers,
	doctors middleware.DoctorLookup,
	cache providers.CacheProvider,
	admin config.AdminConfig,
	server config.ServerConfig,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:      http.NewServeMux(),
		handlers: h,
		doctors:  doctors,
		cache:    cache,
		admin:    admin,
		origins:  middleware.ParseAllowedOrigins(server.AllowedOrigins),
		proxies:  middleware.ParseTrustedProxies(server.TrustedProxies),
		metrics:  metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	doctor := middleware.RequireDoctor(r.doctors)
	admin := middleware.AdminAuth(r.admin.User, r.admin.Password)
	limiter := middleware.NewRateLimiter(r.cache, "ratelimit:delivery", deliveryRateLimit, deliveryRateWindow).
		TrustProxies(r.proxies)

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Medication extraction
	r.mux.HandleFunc("POST /api/nlp/medication", doctor(r.handlers.Medication.ParseMedication))

	// Doctor profile
	r.mux.HandleFunc("GET /api/doctors/me", doctor(r.handlers.Doctor.GetProfile))
	r.mux.HandleFunc("PUT /api/doctors/me", r.handlers.Doctor.SaveProfile)

	// Patients
	r.mux.HandleFunc("GET /api/patients", doctor(r.handlers.Patient.ListPatients))
	r.mux.HandleFunc("POST /api/patients", doctor(r.handlers.Patient.CreatePatient))
	r.mux.HandleFunc("GET /api/patients/{id}", doctor(r.handlers.Patient.GetPatient))
	r.mux.HandleFunc("PUT /api/patients/{id}", doctor(r.handlers.Patient.UpdatePatient))
	r.mux.HandleFunc("DELETE /api/patients/{id}", doctor(r.handlers.Patient.DeletePatient))
	r.mux.HandleFunc("GET /api/patients/{id}/sessions", doctor(r.handlers.Patient.ListSessions))
	r.mux.HandleFunc("POST /api/patients/{id}/sessions", doctor(r.handlers.Patient.SaveSession))
	r.mux.HandleFunc("POST /api/patients/{id}/delivery", doctor(r.handlers.Patient.RequestDelivery))
	if r.handlers.SSE != nil {
		r.mux.HandleFunc("GET /api/patients/{id}/events", doctor(r.handlers.SSE.StreamPatientEvents))
	}

	// Prescriptions
	r.mux.HandleFunc("POST /api/prescriptions", doctor(r.handlers.Prescription.Prescribe))
	r.mux.HandleFunc("GET /api/prescriptions/search", doctor(r.handlers.Prescription.SearchPrescriptions))

	// Patient-facing delivery links
	r.mux.HandleFunc("GET /delivery/confirm", limiter.Wrap(r.handlers.Delivery.Confirm))
	r.mux.HandleFunc("GET /delivery/respond", limiter.Wrap(r.handlers.Delivery.Respond))
	r.mux.HandleFunc("POST /delivery/respond", limiter.Wrap(r.handlers.Delivery.Respond))

	// Admin
	r.mux.HandleFunc("GET /api/admin/dashboard", admin(r.handlers.Admin.Dashboard))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(r.origins)(handler)

	return handler
}
