package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/transport"
)

// RBACAuthorization gates routes on the permission bitmask carried by the
// request's token claims. It must run after AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(base *transport.BaseHandler) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: base}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, required Permission) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			ra.Logger.Warn("authorization check failed: claims not found in context")
			ra.WriteAppError(w, internal.ErrUnauthorized)
			return
		}

		if !HasPermission(claims.Permissions, required) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				slog.Int64("user_id", claims.UserID),
				slog.String("required", required.String()),
				slog.String("granted", claims.Permissions.String()))
			ra.WriteAppError(w, internal.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Require returns middleware that demands every bit of required.
func (ra *RBACAuthorization) Require(required ...Permission) func(http.Handler) http.Handler {
	var mask Permission
	for _, p := range required {
		mask |= p
	}
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, mask)
	}
}
