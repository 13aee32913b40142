package auth_test

import (
	"github.com/frahmantamala/casetrack/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Permission", func() {
	It("assigns one bit per capability in the documented order", func() {
		Expect(auth.PermCreate).To(Equal(auth.Permission(1)))
		Expect(auth.PermEdit).To(Equal(auth.Permission(2)))
		Expect(auth.PermDelete).To(Equal(auth.Permission(4)))
		Expect(auth.PermView).To(Equal(auth.Permission(8)))
		Expect(auth.PermDerive).To(Equal(auth.Permission(16)))
		Expect(auth.PermAudit).To(Equal(auth.Permission(32)))
		Expect(auth.PermExport).To(Equal(auth.Permission(64)))
		Expect(auth.PermLock).To(Equal(auth.Permission(128)))
		Expect(auth.AllPermissions()).To(HaveLen(8))
	})

	It("grants exactly when every required bit is present, for every mask and requirement", func() {
		for m := 0; m <= 255; m++ {
			for r := 0; r <= 255; r++ {
				mask, required := auth.Permission(m), auth.Permission(r)
				Expect(auth.HasPermission(mask, required)).To(Equal(m&r == r),
					"mask=%d required=%d", m, r)
			}
		}
	})

	It("always grants an empty requirement", func() {
		Expect(auth.HasPermission(auth.PermNone, auth.PermNone)).To(BeTrue())
		Expect(auth.PermAll.Has(auth.PermNone)).To(BeTrue())
	})

	It("matches the worked examples", func() {
		Expect(auth.HasPermission(9, auth.PermView)).To(BeTrue())
		Expect(auth.HasPermission(9, auth.PermDelete)).To(BeFalse())
		Expect(auth.HasPermission(auth.PermAll, auth.PermLock)).To(BeTrue())
		Expect(auth.HasPermission(auth.PermCreate|auth.PermView, auth.PermCreate|auth.PermEdit)).To(BeFalse())
	})

	Describe("names", func() {
		It("lists set capabilities in bit order", func() {
			p := auth.PermLock | auth.PermView | auth.PermCreate
			Expect(p.Names()).To(Equal([]string{"create", "view", "lock"}))
			Expect(p.String()).To(Equal("create|view|lock"))
			Expect(auth.PermNone.String()).To(Equal("none"))
			Expect(auth.PermNone.Names()).To(BeEmpty())
		})

		It("parses names back into a mask", func() {
			p, err := auth.ParsePermissions("view", " Audit ", "export")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(auth.PermView | auth.PermAudit | auth.PermExport))
		})

		It("rejects unknown names", func() {
			_, err := auth.ParsePermission("approve")
			Expect(err).To(MatchError(ContainSubstring("approve")))
		})

		It("round trips every mask through its names", func() {
			for m := 0; m <= 255; m++ {
				p := auth.Permission(m)
				back, err := auth.ParsePermissions(p.Names()...)
				Expect(err).NotTo(HaveOccurred())
				Expect(back).To(Equal(p))
			}
		})
	})
})
