package user_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/auth"
	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/internal/user"
	"github.com/frahmantamala/casetrack/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubRepository struct {
	profiles map[int64]user.Profile
	err      error
}

func (s *stubRepository) GetProfile(_ context.Context, id int64) (*user.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, internal.ErrUserNotFound
	}
	return &p, nil
}

var _ = Describe("Profile", func() {
	var (
		repo    *stubRepository
		handler *user.Handler
	)

	get := func(userID int64) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if userID != 0 {
			req = req.WithContext(internal.ContextWithUserID(req.Context(), userID))
		}
		rec := httptest.NewRecorder()
		handler.GetCurrentUser(rec, req)
		return rec
	}

	BeforeEach(func() {
		repo = &stubRepository{profiles: map[int64]user.Profile{
			3: {ID: 3, LoginCode: "auditor01", RoleName: "auditor", PermissionBitmask: auth.PermView | auth.PermAudit | auth.PermExport, ActiveSessions: 1},
		}}
		handler = user.NewHandler(transport.NewBaseHandler(logger.Discard(), false), user.NewService(repo))
	})

	It("fills permission names from the bitmask", func() {
		p, err := user.NewService(repo).GetProfile(context.Background(), 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Permissions).To(Equal([]string{"view", "audit", "export"}))
		Expect(p.Can(auth.PermAudit)).To(BeTrue())
		Expect(p.Can(auth.PermDelete)).To(BeFalse())
	})

	It("serves the profile of the authenticated user", func() {
		rec := get(3)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp user.ProfileResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Success).To(BeTrue())
		Expect(resp.User.LoginCode).To(Equal("auditor01"))
		Expect(resp.User.Permissions).To(ConsistOf("view", "audit", "export"))
	})

	It("answers 401 without an authenticated user", func() {
		Expect(get(0).Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 401 when the user vanished", func() {
		Expect(get(42).Code).To(Equal(http.StatusUnauthorized))
	})

	It("answers 500 on repository failure", func() {
		repo.err = errors.New("db down")
		rec := get(3)
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).NotTo(ContainSubstring("db down"))
	})
})
