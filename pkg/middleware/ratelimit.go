package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"parking-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an unused bucket is kept before eviction.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// limiterStore hands out one token bucket per client key and drops
// buckets nobody used for idleTTL.
type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(every rate.Limit, burst int) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		every:    every,
		burst:    burst,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idleTTL {
		s.sweep(now)
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.every, s.burst)}
		s.limiters[key] = entry
	}
	entry.seen = now
	return entry.limiter
}

// sweep expects s.mu to be held.
func (s *limiterStore) sweep(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.seen) >= s.idleTTL {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

// RateLimit allows perMinute requests per client with the given burst.
// Authenticated requests are keyed by user, anonymous ones by the peer
// address. Forwarding headers are ignored since any client can set them.
// A non-positive perMinute disables limiting.
func RateLimit(perMinute, burst int, logger *zap.Logger) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	store := newLimiterStore(rate.Every(time.Minute/time.Duration(max(perMinute, 1))), burst)

	return func(next http.Handler) http.Handler {
		if perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if user, ok := utils.GetCurrentUser(r.Context()); ok {
				key = "user:" + user.ID.String()
			}

			if !store.get(key).Allow() {
				logger.Warn("Rate limit exceeded",
					zap.String("key", key),
					zap.String("ip", clientIP(r)),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseTooManyRequests(w, "Rate limit exceeded. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the TCP peer address of the request.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
