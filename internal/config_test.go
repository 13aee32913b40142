package internal_test

import (
	"os"
	"time"

	"github.com/frahmantamala/casetrack/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func validConfig() internal.Config {
	cfg := internal.Config{
		Database: internal.DatabaseConfig{Driver: "sqlite", Source: ":memory:"},
		Security: internal.SecurityConfig{JWTSecret: "0123456789abcdef0123456789abcdef"},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	Describe("ApplyDefaults", func() {
		It("fills the documented defaults", func() {
			var cfg internal.Config
			cfg.ApplyDefaults()

			Expect(cfg.Server.Port).To(Equal(8080))
			Expect(cfg.Database.Driver).To(Equal("postgres"))
			Expect(cfg.Security.TokenTTL).To(Equal(24 * time.Hour))
			Expect(cfg.Security.MaxLoginAttempts).To(Equal(3))
			Expect(cfg.Security.BCryptCost).To(Equal(internal.DefaultBCryptCost))
			Expect(cfg.RateLimit.Backend).To(Equal("memory"))
			Expect(cfg.Broker.Queue).To(Equal("auth.events"))
		})

		It("keeps explicit values", func() {
			cfg := internal.Config{Security: internal.SecurityConfig{MaxLoginAttempts: 5, TokenTTL: time.Hour}}
			cfg.ApplyDefaults()
			Expect(cfg.Security.MaxLoginAttempts).To(Equal(5))
			Expect(cfg.Security.TokenTTL).To(Equal(time.Hour))
		})
	})

	Describe("Validate", func() {
		It("accepts a complete config", func() {
			cfg := validConfig()
			Expect(cfg.Validate()).To(Succeed())
		})

		It("reports every broken section at once", func() {
			cfg := validConfig()
			cfg.Security.JWTSecret = "short"
			cfg.Database.Driver = "mysql"
			cfg.RateLimit.Enabled = true
			cfg.RateLimit.Backend = "memcached"

			err := cfg.Validate()
			Expect(err).To(MatchError(ContainSubstring("jwt_secret")))
			Expect(err).To(MatchError(ContainSubstring("unsupported driver")))
			Expect(err).To(MatchError(ContainSubstring("unsupported backend")))
		})

		It("requires a broker url when the broker is enabled", func() {
			cfg := validConfig()
			cfg.Broker.Enabled = true
			cfg.Broker.URL = ""
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("broker")))
		})
	})

	Describe("LoadConfigFromEnv", func() {
		set := func(key, value string) {
			prev, had := os.LookupEnv(key)
			Expect(os.Setenv(key, value)).To(Succeed())
			DeferCleanup(func() {
				if had {
					os.Setenv(key, prev)
				} else {
					os.Unsetenv(key)
				}
			})
		}

		It("reads the auth settings", func() {
			set("DATABASE_URL", "postgres://localhost/casetrack")
			set("JWT_SECRET", "0123456789abcdef0123456789abcdef")
			set("TOKEN_TTL", "2h")
			set("MAX_LOGIN_ATTEMPTS", "4")
			set("RATE_LIMIT_BACKEND", "redis")

			cfg := internal.LoadConfigFromEnv()
			Expect(cfg.Server.Env).To(Equal("production"))
			Expect(cfg.IsDevelopment()).To(BeFalse())
			Expect(cfg.Security.TokenTTL).To(Equal(2 * time.Hour))
			Expect(cfg.Security.MaxLoginAttempts).To(Equal(4))
			Expect(cfg.RateLimit.Backend).To(Equal("redis"))
			Expect(cfg.Validate()).To(Succeed())
		})

		It("ignores proxy headers unless told otherwise", func() {
			Expect(internal.LoadConfigFromEnv().Server.TrustProxyHeaders).To(BeFalse())

			set("HTTP_TRUST_PROXY_HEADERS", "true")
			Expect(internal.LoadConfigFromEnv().Server.TrustProxyHeaders).To(BeTrue())
		})

		It("falls back on unparsable values", func() {
			set("MAX_LOGIN_ATTEMPTS", "many")
			cfg := internal.LoadConfigFromEnv()
			Expect(cfg.Security.MaxLoginAttempts).To(Equal(internal.DefaultMaxLoginAttempts))
		})
	})
})
