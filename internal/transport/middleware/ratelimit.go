package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/pkg/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key is allowed. When it is
// not, retryAfter is how long the caller should wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// MemoryLimiter is a per-key token bucket held in process memory. It suits a
// single instance or tests.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const sweepThreshold = 10000

// NewMemoryLimiter allows requests per window for each key, refilling evenly.
func NewMemoryLimiter(requests int, window time.Duration) *MemoryLimiter {
	if requests < 1 {
		requests = 1
	}
	return &MemoryLimiter{
		limit:   rate.Every(window / time.Duration(requests)),
		burst:   requests,
		idle:    2 * window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.buckets) >= sweepThreshold {
		m.sweep(now)
	}

	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, m.idle, nil
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for k, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.idle {
			delete(m.buckets, k)
		}
	}
}

// RedisLimiter is a fixed-window counter shared by every instance that talks
// to the same Redis.
type RedisLimiter struct {
	client   redis.Cmdable
	requests int64
	window   time.Duration
	prefix   string
	now      func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, requests int, window time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "casetrack:ratelimit:"
	}
	return &RedisLimiter{
		client:   client,
		requests: int64(requests),
		window:   window,
		prefix:   prefix,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := l.now()
	slot := now.UnixNano() / int64(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, slot)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("rate limit counter: %w", err)
	}

	if incr.Val() > l.requests {
		windowEnd := time.Unix(0, (slot+1)*int64(l.window))
		return false, windowEnd.Sub(now), nil
	}
	return true, 0, nil
}

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header. Limiter failures let the request through.
func RateLimit(base *transport.BaseHandler, limiter Limiter, keyFn KeyFunc) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = base.ClientAddress
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Path + "|" + keyFn(r)

			allowed, retryAfter, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context(), base.Logger).Error("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				logger.From(r.Context(), base.Logger).Warn("rate limit exceeded", "path", r.URL.Path)
				base.WriteAppError(w, internal.NewRateLimitedError("Too many requests, retry later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
