package handlers

import (
	"net/http"
	"strings"

	"github.com/zatekoja/clinicportal/internal/application/services"
)

// AdminHandler serves the admin dashboard data.
type AdminHandler struct {
	dashboard     *services.DashboardService
	publicBaseURL string
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(dashboard *services.DashboardService, publicBaseURL string) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, publicBaseURL: publicBaseURL}
}

// Dashboard handles GET /api/admin/dashboard?doctor=
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	selected := strings.TrimSpace(r.URL.Query().Get("doctor"))
	dash, err := h.dashboard.Build(r.Context(), selected, BaseURL(r, h.publicBaseURL))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dash)
}
