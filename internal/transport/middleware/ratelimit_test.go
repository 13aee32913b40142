package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/internal/transport/middleware"
	"github.com/frahmantamala/casetrack/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type scriptedLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (s *scriptedLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.retryAfter, s.err
}

var _ = Describe("Rate limiting", func() {
	Describe("MemoryLimiter", func() {
		It("allows a burst of requests then refuses with a wait", func() {
			l := middleware.NewMemoryLimiter(3, time.Minute)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				ok, _, err := l.Allow(ctx, "10.0.0.1")
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
			}

			ok, wait, err := l.Allow(ctx, "10.0.0.1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(wait).To(BeNumerically(">", 0))
			Expect(wait).To(BeNumerically("<=", 20*time.Second))
		})

		It("keeps separate budgets per key", func() {
			l := middleware.NewMemoryLimiter(1, time.Minute)
			ctx := context.Background()

			ok, _, _ := l.Allow(ctx, "a")
			Expect(ok).To(BeTrue())
			ok, _, _ = l.Allow(ctx, "a")
			Expect(ok).To(BeFalse())
			ok, _, _ = l.Allow(ctx, "b")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("RateLimit middleware", func() {
		var (
			limiter *scriptedLimiter
			handler http.Handler
			hits    int
		)

		BeforeEach(func() {
			hits = 0
			limiter = &scriptedLimiter{allowed: true}
			base := transport.NewBaseHandler(logger.Discard(), false)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits++
				w.WriteHeader(http.StatusOK)
			})
			handler = middleware.RateLimit(base, limiter, nil)(next)
		})

		serve := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
			req.RemoteAddr = "192.0.2.10:5555"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		It("passes allowed requests through, keyed by path and address", func() {
			Expect(serve().Code).To(Equal(http.StatusOK))
			Expect(hits).To(Equal(1))
			Expect(limiter.keys).To(Equal([]string{"/api/v1/auth/login|192.0.2.10"}))
		})

		It("answers 429 with Retry-After when refused", func() {
			limiter.allowed = false
			limiter.retryAfter = 1500 * time.Millisecond

			rec := serve()
			Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
			Expect(rec.Header().Get("Retry-After")).To(Equal("2"))
			Expect(rec.Body.String()).To(ContainSubstring("RATE_LIMITED"))
			Expect(hits).To(BeZero())
		})

		It("lets requests through when the limiter fails", func() {
			limiter.allowed = false
			limiter.err = errors.New("redis down")

			Expect(serve().Code).To(Equal(http.StatusOK))
			Expect(hits).To(Equal(1))
		})
	})
})
