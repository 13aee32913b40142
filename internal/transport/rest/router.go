package rest

import (
	"database/sql"
	"net/http"

	"github.com/frahmantamala/casetrack/internal/auth"
	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/internal/transport/middleware"
	"github.com/frahmantamala/casetrack/internal/transport/swagger"
	"github.com/frahmantamala/casetrack/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/redis/go-redis/v9"
)

// Deps are the handlers and backends the router mounts. Nil handlers leave
// their routes unregistered; a nil LoginLimiter disables login throttling.
// Proxy headers are ignored unless TrustProxyHeaders is set.
type Deps struct {
	Base         *transport.BaseHandler
	DB           *sql.DB
	Redis        redis.UniversalClient
	Auth         *auth.Handler
	RBAC         *auth.RBACAuthorization
	User         *user.Handler
	LoginLimiter middleware.Limiter
	OpenAPI      []byte

	TrustProxyHeaders bool
}

func NewRouter(deps Deps) *chi.Mux {
	router := chi.NewRouter()
	RegisterAllRoutes(router, deps)
	return router
}

func RegisterAllRoutes(router *chi.Mux, deps Deps) {
	base := deps.Base

	router.Use(chiMiddleware.RequestID)
	if deps.TrustProxyHeaders {
		router.Use(chiMiddleware.RealIP)
	}
	router.Use(middleware.TraceID(base.Logger))
	router.Use(middleware.RequestLogger(base.Logger))
	router.Use(middleware.Recoverer(base))

	if len(deps.OpenAPI) > 0 {
		router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write(deps.OpenAPI)
		})
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if deps.DB != nil {
			health := NewHealthHandler(base, deps.DB, deps.Redis)
			r.Get("/health", health.Health)
			r.Get("/ping", health.Ping)
		}

		if deps.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Group(func(lr chi.Router) {
				if deps.LoginLimiter != nil {
					lr.Use(middleware.RateLimit(base, deps.LoginLimiter, nil))
				}
				lr.Post("/login", deps.Auth.Login)
			})
			ar.Post("/logout", deps.Auth.Logout)
			ar.Post("/renew-token", deps.Auth.RenewToken)
			ar.With(deps.Auth.AuthMiddleware).Get("/check", deps.Auth.Check)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)

			if deps.User != nil && deps.RBAC != nil {
				pr.With(deps.RBAC.Require(auth.PermView)).Get("/users/me", deps.User.GetCurrentUser)
			}
		})
	})
}
