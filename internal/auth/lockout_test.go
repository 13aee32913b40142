package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/frahmantamala/casetrack/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LockoutPolicy", func() {
	var (
		ctx    context.Context
		store  *memoryCredentials
		policy *auth.LockoutPolicy
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemoryCredentials(newUser(1, "clerk01", "pw", auth.PermView))
		policy = auth.NewLockoutPolicy(store, 3)
	})

	It("falls back to three attempts for a non-positive threshold", func() {
		Expect(auth.NewLockoutPolicy(store, 0).MaxAttempts()).To(Equal(3))
	})

	It("derives the state from the flag or the counter", func() {
		Expect(policy.State(0, false)).To(Equal(auth.StateActive))
		Expect(policy.State(2, false)).To(Equal(auth.StateActive))
		Expect(policy.State(3, false)).To(Equal(auth.StateBlocked))
		Expect(policy.State(0, true)).To(Equal(auth.StateBlocked))
		Expect(auth.StateBlocked.String()).To(Equal("blocked"))
	})

	It("blocks on the failure that reaches the threshold", func() {
		for i := 1; i <= 2; i++ {
			out, err := policy.RegisterFailure(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Attempts).To(Equal(i))
			Expect(out.Blocked).To(BeFalse())
		}

		out, err := policy.RegisterFailure(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(auth.FailureOutcome{Attempts: 3, Blocked: true, JustBlocked: true}))

		u := store.get(1)
		Expect(u.Blocked).To(BeTrue())
		Expect(u.LastBlockAt).NotTo(BeNil())
		Expect(policy.IsBlocked(&u)).To(BeTrue())
	})

	It("reports later failures as blocked but not newly blocked", func() {
		for i := 0; i < 3; i++ {
			_, err := policy.RegisterFailure(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
		}
		out, err := policy.RegisterFailure(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Blocked).To(BeTrue())
		Expect(out.JustBlocked).To(BeFalse())
	})

	It("resets the counter on success", func() {
		_, err := policy.RegisterFailure(ctx, 1)
		Expect(err).NotTo(HaveOccurred())

		at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		Expect(policy.RegisterSuccess(ctx, 1, at)).To(Succeed())

		u := store.get(1)
		Expect(u.FailedAttempts).To(BeZero())
		Expect(*u.LastAccessAt).To(Equal(at))
	})

	It("never loses an increment under concurrent failures", func() {
		const n = 50
		big := auth.NewLockoutPolicy(store, n+1)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := big.RegisterFailure(ctx, 1)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		Expect(store.get(1).FailedAttempts).To(Equal(n))
	})

	It("wraps store errors", func() {
		_, err := policy.RegisterFailure(ctx, 99)
		Expect(err).To(MatchError(ContainSubstring("increment failed attempts")))
	})
})
