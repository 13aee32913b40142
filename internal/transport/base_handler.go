package transport

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/casetrack/internal"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
	// Debug exposes internal error causes to clients. Development only.
	Debug bool
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger, debug bool) *BaseHandler {
	if lg == nil {
		lg = slog.Default()
	}
	return &BaseHandler{Logger: lg, Debug: debug}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a plain error response with a generic code for status.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	appErr := &internal.AppError{
		Type:       internal.ErrorTypeInternal,
		Code:       internal.ErrCodeInternal,
		Message:    message,
		StatusCode: status,
	}
	h.WriteAppError(w, appErr)
}

// WriteAppError translates err into its HTTP status and error body. Errors
// that are not *internal.AppError become a generic 500.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, err error) {
	appErr := internal.AsAppError(err)

	if appErr.StatusCode >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", appErr.StatusCode, "code", appErr.Code, "error", err)
		if h.Debug && appErr.Cause != nil {
			appErr = appErr.WithDetails(map[string]string{"cause": appErr.Cause.Error()})
		}
	} else {
		h.Logger.Debug("http error", "status", appErr.StatusCode, "code", appErr.Code, "message", appErr.GetDetailedMessage())
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[7:])
}

// ClientAddress returns the request's origin host without its port.
func (h *BaseHandler) ClientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
