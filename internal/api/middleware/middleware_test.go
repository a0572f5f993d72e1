package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicportal/internal/adapters/cache"
	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	apperrors "github.com/zatekoja/clinicportal/pkg/errors"
)

type stubDoctors map[string]*entities.Doctor

func (s stubDoctors) Get(_ context.Context, username string) (*entities.Doctor, error) {
	if d, ok := s[username]; ok {
		return d, nil
	}
	return nil, apperrors.NewNotFoundError("doctor not found")
}

func TestRequireDoctor(t *testing.T) {
	doctors := stubDoctors{"drade": {Username: "drade", Name: "Ade"}}
	var seen *entities.Doctor
	h := RequireDoctor(doctors)(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = DoctorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	for _, username := range []string{"", "   ", "ghost"} {
		req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
		req.Header.Set(DoctorHeader, username)
		rec := httptest.NewRecorder()
		h(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, username)
		assert.JSONEq(t, `{"ok":false,"error":"unauthorized"}`, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set(DoctorHeader, "drade")
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "Ade", seen.Name)
}

func TestAdminAuth(t *testing.T) {
	h := AdminAuth("root", "pw")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	req.SetBasicAuth("root", "wrong")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("root", "pw")
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_Local(t *testing.T) {
	l := NewRateLimiter(nil, "delivery", 2, time.Minute)
	h := l.Wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/delivery/confirm", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/delivery/confirm", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients have their own window")
}

func TestRateLimiter_SharedCache(t *testing.T) {
	local, err := cache.NewLocalAdapter(8)
	require.NoError(t, err)
	a := NewRateLimiter(local, "rl", 1, time.Minute)
	b := NewRateLimiter(local, "rl", 1, time.Minute)

	allowed, _ := a.allow(context.Background(), "rl:1.2.3.4")
	assert.True(t, allowed)
	allowed, retry := b.allow(context.Background(), "rl:1.2.3.4")
	assert.False(t, allowed, "limit is shared through the cache")
	assert.Greater(t, retry, time.Duration(0))
}

func TestRateLimiter_JSONStateCache(t *testing.T) {
	local, err := cache.NewLocalAdapter(8)
	require.NoError(t, err)
	// Hides Increment so the limiter keeps its own window state.
	shared := struct{ providers.CacheProvider }{local}
	_, counts := providers.CacheProvider(shared).(providers.WindowCounter)
	require.False(t, counts)

	a := NewRateLimiter(shared, "rl", 2, time.Minute)
	b := NewRateLimiter(shared, "rl", 2, time.Minute)
	ctx := context.Background()

	allowed, _ := a.allow(ctx, "rl:1.2.3.4")
	assert.True(t, allowed)
	allowed, _ = b.allow(ctx, "rl:1.2.3.4")
	assert.True(t, allowed)
	allowed, retry := a.allow(ctx, "rl:1.2.3.4")
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Minute)

	allowed, _ = a.allow(ctx, "rl:5.6.7.8")
	assert.True(t, allowed)

	data, err := local.Get(ctx, "rl:1.2.3.4")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count":2`)
}

func TestLocalRateLimiter_DropsExpiredWindows(t *testing.T) {
	l := newLocalRateLimiter()
	for _, key := range []string{"a", "b", "c"} {
		allowed, _ := l.allow(key, 1, time.Millisecond)
		require.True(t, allowed)
	}
	time.Sleep(5 * time.Millisecond)

	allowed, _ := l.allow("d", 1, time.Millisecond)
	assert.True(t, allowed)
	assert.Len(t, l.states, 1)
	assert.Contains(t, l.states, "d")
}

func TestParseTrustedProxies(t *testing.T) {
	nets := ParseTrustedProxies(" 10.0.0.0/8, 192.0.2.10 ,bogus, ::1, 300.1.1.1/8,")
	require.Len(t, nets, 3)
	assert.Equal(t, "10.0.0.0/8", nets[0].String())
	assert.Equal(t, "192.0.2.10/32", nets[1].String())
	assert.Equal(t, "::1/128", nets[2].String())

	assert.Empty(t, ParseTrustedProxies(""))
}

func TestClientIP(t *testing.T) {
	proxies := ParseTrustedProxies("10.0.0.0/8")

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		want       string
	}{
		{"direct", "192.0.2.1:1234", "", "", "192.0.2.1"},
		{"untrusted peer ignores headers", "192.0.2.1:1234", "203.0.113.7", "198.51.100.2", "192.0.2.1"},
		{"trusted peer uses nearest untrusted hop", "10.0.0.5:80", "1.1.1.1, 203.0.113.7, 10.0.0.9", "", "203.0.113.7"},
		{"trusted peer falls back to real ip", "10.0.0.5:80", "", " 198.51.100.2 ", "198.51.100.2"},
		{"garbage forwarded header", "10.0.0.5:80", "not-an-ip", "", "10.0.0.5"},
		{"all hops trusted", "10.0.0.5:80", "10.1.1.1", "", "10.0.0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, clientIP(req, proxies))
		})
	}
}

func TestRateLimiter_RotatingForwardedHeaderSharesWindow(t *testing.T) {
	l := NewRateLimiter(nil, "delivery", 1, time.Minute)
	h := l.Wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodGet, "/delivery/confirm", nil)
		req.RemoteAddr = "192.0.2.50:4000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 429}, codes)
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })

	h := CORSMiddleware(ParseAllowedOrigins("https://a.example, https://b.example"))(next)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://b.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://b.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), DoctorHeader)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec = httptest.NewRecorder()
	CORSMiddleware(ParseAllowedOrigins(""))(next).ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusOK, rec.Code)
}
