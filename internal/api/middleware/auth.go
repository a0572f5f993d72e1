package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

// DoctorHeader carries the signed-in doctor's username.
const DoctorHeader = "X-Doctor-Username"

type doctorKey struct{}

// DoctorLookup resolves a username to a registered doctor.
type DoctorLookup interface {
	Get(ctx context.Context, username string) (*entities.Doctor, error)
}

// WithDoctor returns a copy of ctx carrying doctor.
func WithDoctor(ctx context.Context, doctor *entities.Doctor) context.Context {
	return context.WithValue(ctx, doctorKey{}, doctor)
}

// DoctorFromContext returns the doctor set by RequireDoctor, if any.
func DoctorFromContext(ctx context.Context) (*entities.Doctor, bool) {
	d, ok := ctx.Value(doctorKey{}).(*entities.Doctor)
	return d, ok && d != nil
}

// RequireDoctor rejects requests whose doctor header is missing or unknown.
func RequireDoctor(doctors DoctorLookup) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			username := strings.TrimSpace(r.Header.Get(DoctorHeader))
			if username == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			doctor, err := doctors.Get(r.Context(), username)
			if err != nil {
				if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
					writeError(w, http.StatusUnauthorized, "unauthorized")
				} else {
					writeError(w, http.StatusInternalServerError, "internal_error")
				}
				return
			}
			next(w, r.WithContext(WithDoctor(r.Context(), doctor)))
		}
	}
}

// AdminAuth guards a handler with HTTP basic auth.
func AdminAuth(user, password string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next(w, r)
		}
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": code})
}
