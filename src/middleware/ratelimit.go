package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"finance-dashboard/src/apperrors"
	"finance-dashboard/src/logging"
)

// Limiter counts requests per client IP in fixed windows.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	window      time.Duration
	maxRequests int
	trustProxy  bool
	now         func() time.Time
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

// NewLimiter allows maxRequests per client within each window. Clients are keyed by
// peer address unless trustProxy is set, see ClientIP. Call Stop to end the cleanup
// goroutine.
func NewLimiter(window time.Duration, maxRequests int, trustProxy bool) *Limiter {
	rl := &Limiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
		window:      window,
		maxRequests: maxRequests,
		trustProxy:  trustProxy,
		now:         time.Now,
	}
	go rl.startCleanup()
	return rl
}

// Allow records a request from clientIP and reports whether it is within the limit,
// along with the time the current window resets.
func (rl *Limiter) Allow(clientIP string) (bool, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[clientIP]
	if !exists || now.Sub(client.windowStart) >= rl.window {
		rl.clients[clientIP] = &clientInfo{windowStart: now, requests: 1}
		return true, now.Add(rl.window)
	}

	client.requests++
	return client.requests <= rl.maxRequests, client.windowStart.Add(rl.window)
}

func (rl *Limiter) startCleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes clients whose window has ended.
func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, client := range rl.clients {
		if now.Sub(client.windowStart) >= rl.window {
			delete(rl.clients, ip)
		}
	}
}

func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Stop shuts down the cleanup goroutine.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

// Middleware answers 429 once a client exceeds its quota.
func (rl *Limiter) Middleware(logger *logging.Logger) func(http.Handler) http.Handler {
	logger = logger.WithComponent(logging.ComponentRateLimit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, rl.trustProxy)
			ok, reset := rl.Allow(ip)
			if !ok {
				retry := int(reset.Sub(rl.now()).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.WarnContext(r.Context(), "rate limit exceeded",
					logging.FieldClientIP, ip,
					logging.FieldPath, r.URL.Path)
				writeError(w, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the peer address of r. Forwarding headers are client-controlled,
// so they are only read when trustProxy says a reverse proxy sets them. In that case
// the last X-Forwarded-For hop, the one the proxy appended, wins over X-Real-IP.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
