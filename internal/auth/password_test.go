package auth_test

import (
	"strings"

	"github.com/frahmantamala/casetrack/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("PasswordHasher", func() {
	var hasher *auth.PasswordHasher

	BeforeEach(func() {
		hasher = auth.NewPasswordHasher(bcrypt.MinCost)
	})

	It("verifies a bcrypt hash it produced", func() {
		hash, err := hasher.Hash("s3cret")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(HavePrefix("$2"))

		ok, err := hasher.Verify("s3cret", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = hasher.Verify("wrong", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("treats an over-long password as a mismatch", func() {
		hash, err := hasher.Hash("short")
		Expect(err).NotTo(HaveOccurred())

		ok, err := hasher.Verify(strings.Repeat("x", 100), hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("refuses to hash an empty password", func() {
		_, err := hasher.Hash("")
		Expect(err).To(HaveOccurred())
	})

	It("verifies argon2id hashes", func() {
		params := auth.DefaultArgon2Params()
		params.Memory = 8 * 1024
		params.Iterations = 1

		hash, err := auth.HashArgon2("legacy-pw", params)
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(HavePrefix("argon2id$v=19$m=8192,t=1,p=4$"))

		ok, err := hasher.Verify("legacy-pw", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		ok, err = hasher.Verify("other", hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("rejects unknown hash formats", func() {
		_, err := hasher.Verify("pw", "md5$abc")
		Expect(err).To(MatchError(auth.ErrUnsupportedHash))
	})

	It("rejects argon2id hashes with out-of-range parameters", func() {
		params := auth.DefaultArgon2Params()
		params.Memory = 8 * 1024
		params.Iterations = 1
		hash, err := auth.HashArgon2("legacy-pw", params)
		Expect(err).NotTo(HaveOccurred())

		for _, bad := range []string{"m=8192,t=0,p=4", "m=8192,t=1,p=0", "m=4294967295,t=1,p=4", "m=0,t=1,p=4"} {
			tampered := strings.Replace(hash, "m=8192,t=1,p=4", bad, 1)
			ok, err := hasher.Verify("legacy-pw", tampered)
			Expect(err).To(MatchError(auth.ErrUnsupportedHash), bad)
			Expect(ok).To(BeFalse())
		}
	})

	It("rejects malformed argon2id hashes", func() {
		_, err := hasher.Verify("pw", "argon2id$v=19$m=1,t=1$salt")
		Expect(err).To(HaveOccurred())
	})

	Describe("SaltOf", func() {
		It("extracts the bcrypt salt", func() {
			hash, err := hasher.Hash("pw")
			Expect(err).NotTo(HaveOccurred())
			Expect(auth.SaltOf(hash)).To(HaveLen(22))
			Expect(hash).To(ContainSubstring(auth.SaltOf(hash)))
		})

		It("extracts the argon2id salt", func() {
			hash, err := auth.HashArgon2("pw", auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32})
			Expect(err).NotTo(HaveOccurred())
			Expect(auth.SaltOf(hash)).To(Equal(strings.Split(hash, "$")[3]))
		})

		It("returns empty for unknown formats", func() {
			Expect(auth.SaltOf("nope")).To(BeEmpty())
		})
	})
})
