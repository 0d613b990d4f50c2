package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "marina/pkg/errors"
	httputil "marina/pkg/http"
	"marina/pkg/logger"

	"golang.org/x/time/rate"
)

const limiterCleanupInterval = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
	mu       sync.Mutex
}

// IPRateLimiter is a token bucket per client address. A client may burst up
// to limit requests and then refills at limit per window.
type IPRateLimiter struct {
	limiters sync.Map
	limit    int
	window   time.Duration
	every    rate.Limit
	log      *logger.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewIPRateLimiter(limit int, window time.Duration, log *logger.Logger) *IPRateLimiter {
	rl := &IPRateLimiter{
		limit:  limit,
		window: window,
		every:  rate.Every(window / time.Duration(limit)),
		log:    log,
		stopCh: make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

func (rl *IPRateLimiter) getLimiter(key string) *clientLimiter {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*clientLimiter)
	}

	cl := &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.limit)}
	actual, _ := rl.limiters.LoadOrStore(key, cl)
	return actual.(*clientLimiter)
}

func (rl *IPRateLimiter) Allow(key string) bool {
	cl := rl.getLimiter(key)

	cl.mu.Lock()
	cl.lastSeen = time.Now()
	cl.mu.Unlock()

	return cl.limiter.Allow()
}

func (rl *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// Idle buckets are full again after one window and can be dropped.
func (rl *IPRateLimiter) evictIdle(now time.Time) {
	rl.limiters.Range(func(key, value any) bool {
		cl := value.(*clientLimiter)
		cl.mu.Lock()
		idle := now.Sub(cl.lastSeen) > rl.window
		cl.mu.Unlock()
		if idle {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func RateLimit(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if !limiter.Allow(ip) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"client_ip", ip,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				_ = httputil.WriteError(w, apperrors.RateLimited())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
