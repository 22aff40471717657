package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-client-IP token bucket. Idle clients are evicted by a
// background sweeper that runs until Close.
type RateLimiter struct {
	mu         sync.Mutex
	visitors   map[string]*visitor
	limit      rate.Limit
	burst      int
	ttl        time.Duration
	trustProxy bool
	now        func() time.Time
	logger     *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// RateLimitConfig configures a RateLimiter.
type RateLimitConfig struct {
	// PerMinute is the sustained number of requests allowed per client.
	PerMinute int
	Burst     int
	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRateLimiter creates a limiter and starts its sweeper.
func NewRateLimiter(cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 3 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(cfg.PerMinute, 1)
	}
	rl := &RateLimiter{
		visitors:   make(map[string]*visitor),
		limit:      rate.Limit(float64(cfg.PerMinute) / 60),
		burst:      cfg.Burst,
		ttl:        cfg.IdleTTL,
		trustProxy: cfg.TrustProxy,
		now:        time.Now,
		logger:     logger,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Handler enforces the limit, answering 429 RATE_LIMITED when exhausted.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP(r)
		if !rl.limiter(ip).Allow() {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "60")
			httputil.WriteError(w, r, apperrors.TooManyRequests("too many requests, please try again later"), rl.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Close stops the sweeper and waits for it to exit.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
	<-rl.done
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

func (rl *RateLimiter) sweep() {
	defer close(rl.done)
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.ttl {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) clientIP(r *http.Request) string {
	if rl.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip.String()
		}
	}
	return clientHost(r.RemoteAddr)
}
