package middleware

import (
	"net/http"
	"stayfinder/shared"
	"stayfinder/shared/constant"
	"stayfinder/transport/http/response"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	cacheKeyRateLimit = "limiter"

	defaultMaxRequests   = 100
	defaultWindowSeconds = 60
	localLimiterIdle     = 10 * time.Minute
)

// RateLimit counts requests per client in Redis. While Redis is unreachable
// an in-process token bucket with the same budget takes over.
func (a *appMiddleware) RateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.config.App.RateLimiter.Enable {
				next.ServeHTTP(w, r)

				return
			}

			maxReqs, windowSecs := limits(a.config.App.RateLimiter.MaxRequests, a.config.App.RateLimiter.WindowSeconds)
			client := clientIP(r)
			cacheKey := shared.BuildCacheKey(cacheKeyRateLimit, client, userAgent(r))

			count, err := a.cache.Increment(r.Context(), cacheKey, windowSecs)
			if err != nil {
				log.Warn().Err(err).Str("client", client).Msg("rate limiter falling back to local bucket")

				if !a.local.allow(cacheKey) {
					response.WithRequestLimitExceeded(w)

					return
				}

				next.ServeHTTP(w, r)

				return
			}

			w.Header().Set(constant.RequestHeaderRateLimit, strconv.Itoa(maxReqs))
			w.Header().Set(constant.RequestHeaderRateLimitRemaining, strconv.FormatInt(max(0, int64(maxReqs)-count), 10))
			w.Header().Set(constant.RequestHeaderRateLimitWindow, strconv.Itoa(windowSecs))

			if count > int64(maxReqs) {
				response.WithRequestLimitExceeded(w)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limits(maxReqs, windowSecs int) (int, int) {
	if maxReqs <= 0 {
		maxReqs = defaultMaxRequests
	}

	if windowSecs <= 0 {
		windowSecs = defaultWindowSeconds
	}

	return maxReqs, windowSecs
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

func newLocalLimiter(maxReqs, windowSecs int) *localLimiter {
	maxReqs, windowSecs = limits(maxReqs, windowSecs)

	return &localLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(maxReqs) / float64(windowSecs)),
		burst:    maxReqs,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > localLimiterIdle {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}

	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func userAgent(r *http.Request) string {
	ua := r.Header.Get(constant.RequestHeaderUserAgent)
	if ua == constant.Empty {
		ua = "unknown"
	}

	return ua
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get(constant.RequestHeaderForwardedFor); xff != constant.Empty {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get(constant.RequestHeaderRealIP); xri != constant.Empty {
		return strings.TrimSpace(xri)
	}

	return r.RemoteAddr
}
