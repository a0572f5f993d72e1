package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/providers"
)

// RateLimiter caps requests per client IP in fixed windows. Counters live in
// the shared cache when one is configured, otherwise in process memory.
// Caches that implement providers.WindowCounter count atomically; others
// store a JSON window state with a read-then-write.
type RateLimiter struct {
	cache   providers.CacheProvider
	local   *localRateLimiter
	prefix  string
	limit   int
	window  time.Duration
	proxies []*net.IPNet
}

// NewRateLimiter creates a limiter allowing limit requests per window. cache may be nil.
func NewRateLimiter(cache providers.CacheProvider, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		cache:  cache,
		local:  newLocalRateLimiter(),
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// TrustProxies makes the limiter read the client address from forwarding
// headers, but only on requests whose peer is one of proxies.
func (l *RateLimiter) TrustProxies(proxies []*net.IPNet) *RateLimiter {
	l.proxies = proxies
	return l
}

// ParseTrustedProxies reads a comma-separated list of IPs and CIDR ranges.
// Invalid entries are logged and skipped.
func ParseTrustedProxies(raw string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				log.Warn().Str("proxy", entry).Msg("ignoring invalid trusted proxy")
				continue
			}
			bits := 8 * net.IPv6len
			if v4 := ip.To4(); v4 != nil {
				ip, bits = v4, 8*net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			log.Warn().Str("proxy", entry).Msg("ignoring invalid trusted proxy")
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

type rateLimitState struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Wrap applies the limit to one handler.
func (l *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.allow(r.Context(), l.prefix+":"+clientIP(r, l.proxies))
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next(w, r)
	}
}

func (l *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.cache == nil {
		return l.local.allow(key, l.limit, l.window)
	}

	if counter, ok := l.cache.(providers.WindowCounter); ok {
		count, ttl, err := counter.Increment(ctx, key, l.window)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("rate limit counter unavailable; limiting locally")
			return l.local.allow(key, l.limit, l.window)
		}
		if count > int64(l.limit) {
			if ttl <= 0 {
				ttl = l.window
			}
			return false, ttl
		}
		return true, 0
	}

	now := time.Now()
	state := rateLimitState{}
	if data, err := l.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}
	if state.ResetAt.IsZero() || now.After(state.ResetAt) {
		state = rateLimitState{ResetAt: now.Add(l.window)}
	}
	if state.Count >= l.limit {
		return false, time.Until(state.ResetAt)
	}

	state.Count++
	data, _ := json.Marshal(state)
	if err := l.cache.Set(ctx, key, data, time.Until(state.ResetAt)); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to store rate limit state")
	}
	return true, 0
}

type localRateLimiter struct {
	mu        sync.Mutex
	states    map[string]*localRateState
	lastSweep time.Time
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{states: make(map[string]*localRateState)}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= window {
		l.sweep(now)
	}

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, 0
}

// sweep drops expired windows. Callers hold mu.
func (l *localRateLimiter) sweep(now time.Time) {
	for key, state := range l.states {
		if now.After(state.resetAt) {
			delete(l.states, key)
		}
	}
	l.lastSweep = now
}

// clientIP is the peer address. Behind a trusted proxy it is the nearest
// untrusted hop in X-Forwarded-For, else X-Real-IP.
func clientIP(r *http.Request, proxies []*net.IPNet) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !trusted(host, proxies) {
		return host
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		hops := strings.Split(forwarded, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				break
			}
			if !trusted(hop, proxies) {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(realIP) != nil {
		return realIP
	}
	return host
}

func trusted(addr string, proxies []*net.IPNet) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range proxies {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
