package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/casetrack/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("AppError", func() {
	It("matches sentinels through wrapping and copies", func() {
		wrapped := fmt.Errorf("login: %w", internal.ErrInvalidToken.WithCause(errors.New("bad sig")))
		Expect(errors.Is(wrapped, internal.ErrInvalidToken)).To(BeTrue())
		Expect(errors.Is(wrapped, internal.ErrTokenExpired)).To(BeFalse())
		Expect(internal.ErrInvalidToken.Cause).To(BeNil())
	})

	It("classifies the token failures hidden behind a generic 401", func() {
		for _, err := range []error{internal.ErrTokenMissing, internal.ErrInvalidToken, internal.ErrTokenExpired, internal.ErrSessionRevoked} {
			Expect(internal.IsUnauthorizedKind(err)).To(BeTrue())
		}
		Expect(internal.IsUnauthorizedKind(internal.ErrAccountBlocked)).To(BeFalse())
		Expect(internal.IsUnauthorizedKind(internal.ErrInvalidCredentials)).To(BeFalse())
	})

	It("turns unknown errors into an opaque 500", func() {
		appErr := internal.AsAppError(errors.New("pq: relation does not exist"))
		Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(appErr.Code).To(Equal(internal.ErrCodeInternal))

		status, body := appErr.ToHTTPResponse()
		Expect(status).To(Equal(http.StatusInternalServerError))
		out, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).NotTo(ContainSubstring("relation"))
	})

	It("maps each kind to its status", func() {
		Expect(internal.ErrAccountBlocked.StatusCode).To(Equal(http.StatusUnauthorized))
		Expect(internal.ErrForbidden.StatusCode).To(Equal(http.StatusForbidden))
		Expect(internal.NewRateLimitedError("slow down").StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(internal.ErrBadRequest.StatusCode).To(Equal(http.StatusBadRequest))
	})
})
