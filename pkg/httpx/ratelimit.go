package httpx

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the rate limiting parameters.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

var (
	// APILimit paces calls to the management API from a single client.
	// Override with: KINDE_API_RATE_LIMIT_REQUESTS, KINDE_API_RATE_LIMIT_WINDOW_SEC, KINDE_API_RATE_LIMIT_BURST
	APILimit = RateLimitConfig{
		RequestsPerWindow: 60,
		Window:            time.Minute,
		Burst:             10,
	}

	// CallbackLimit guards the loopback redirect handler. A real login hits it
	// once; anything more is a misbehaving local process.
	CallbackLimit = RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		Burst:             5,
	}
)

// Limit converts the window-based configuration into a token bucket rate.
func (c RateLimitConfig) Limit() rate.Limit {
	if c.RequestsPerWindow <= 0 || c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// NewLimiter builds a token bucket for the configuration.
func (c RateLimitConfig) NewLimiter() *rate.Limiter {
	return rate.NewLimiter(c.Limit(), max(c.Burst, 1))
}

// ParseRateLimitFromEnv reads rate limit configuration from environment variables.
// Environment variables follow the pattern: {prefix}_{field}
// For example: KINDE_API_RATE_LIMIT_REQUESTS, KINDE_API_RATE_LIMIT_WINDOW_SEC, KINDE_API_RATE_LIMIT_BURST
func ParseRateLimitFromEnv(prefix string, defaultConfig RateLimitConfig) RateLimitConfig {
	config := defaultConfig

	if val := os.Getenv(prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}

	if val := os.Getenv(prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}

	if val := os.Getenv(prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// Transport is an http.RoundTripper that waits for a token from a shared
// limiter before each outbound request. The wait honours the request context.
type Transport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewTransport wraps base (http.DefaultTransport when nil) with a limiter built
// from config.
func NewTransport(base http.RoundTripper, config RateLimitConfig) *Transport {
	return &Transport{Base: base, Limiter: config.NewLimiter()}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// KeyExtractor extracts the key requests are grouped by for rate limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// It handles X-Forwarded-For and X-Real-IP headers for proxied requests.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type keyedLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	config   RateLimitConfig
}

func (kl *keyedLimiter) get(key string) *rate.Limiter {
	if limiter, ok := kl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := kl.limiters.LoadOrStore(key, kl.config.NewLimiter())
	return actual.(*rate.Limiter)
}

// RateLimitMiddleware rejects requests over the configured rate with 429.
// The keyExtractor determines how requests are grouped for rate limiting.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	kl := &keyedLimiter{config: config}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := kl.get(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerWindow))
				w.Header().Set("X-RateLimit-Window", config.Window.String())

				log.Warn("rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, map[string]string{
					"error":             "rate_limit_exceeded",
					"error_description": "Too many requests. Please try again later.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP creates a rate limiter that limits by IP address only.
func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}
