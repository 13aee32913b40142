package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/pkg/logger"
)

const maxBodyBytes = 1 << 16

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&dto); err != nil {
		h.WriteAppError(w, internal.ErrBadRequest)
		return
	}

	result, err := h.Service.Login(r.Context(), dto, h.ClientAddress(r))
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   result.Token,
		User:    result.User,
	})
}

// Logout handles POST /auth/logout. It always succeeds for the client.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if err := h.Service.Logout(r.Context(), token, h.ClientAddress(r)); err != nil {
		logger.From(r.Context(), h.Logger).Error("logout failed", "error", err)
	}
	h.WriteJSON(w, http.StatusOK, LogoutResponse{Success: true})
}

// Check handles GET /auth/check behind AuthMiddleware.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		h.WriteAppError(w, internal.ErrUnauthorized)
		return
	}

	user, err := h.Service.CurrentUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			h.WriteAppError(w, internal.ErrUnauthorized)
			return
		}
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, CheckResponse{Success: true, User: *user})
}

// RenewToken handles POST /auth/renew-token. The token is read from the
// Authorization header, or from the JSON body when the header is absent.
func (h *Handler) RenewToken(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" && r.Body != nil {
		var dto RenewTokenDTO
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&dto); err == nil {
			token = dto.Token
		}
	}

	newToken, err := h.Service.RenewToken(r.Context(), token, h.ClientAddress(r))
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, RenewTokenResponse{Success: true, Token: newToken})
}

// AuthMiddleware rejects requests without a live, verifiable bearer token and
// attaches the decoded claims to the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)

		claims, err := h.Service.Authorize(r.Context(), token)
		if err != nil {
			h.writeAuthError(w, r, err)
			return
		}

		ctx := ContextWithClaims(r.Context(), claims)
		ctx = internal.ContextWithUserID(ctx, claims.UserID)
		ctx = logger.With(ctx, h.Logger, "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeAuthError hides which token check failed behind a generic 401.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if internal.IsUnauthorizedKind(err) {
		logger.From(r.Context(), h.Logger).Info("request unauthorized",
			"reason", internal.AsAppError(err).Code,
			"path", r.URL.Path)
		h.WriteAppError(w, internal.ErrUnauthorized)
		return
	}
	h.WriteAppError(w, err)
}
