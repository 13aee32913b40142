package user

import (
	"errors"
	"net/http"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/transport"
	"github.com/frahmantamala/casetrack/pkg/logger"
)

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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := internal.UserIDFromContext(r.Context())
	if userID == 0 {
		h.WriteAppError(w, internal.ErrUnauthorized)
		return
	}

	p, err := h.Service.GetProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			h.WriteAppError(w, internal.ErrUnauthorized)
			return
		}
		logger.From(r.Context(), h.Logger).Error("get profile failed", "error", err)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ProfileResponse{Success: true, User: p})
}
