package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/casetrack/pkg/logger"
)

const (
	redacted       = "[REDACTED]"
	maxLoggedBytes = 4096
)

// redactedKeys are matched case-insensitively as substrings of header names
// and JSON keys. Bodies of auth endpoints always carry a password or token.
var redactedKeys = []string{
	"password",
	"token",
	"authorization",
	"cookie",
	"secret",
	"salt",
}

// RequestLogger logs one line per request and one per response. Credentials
// never reach the log.
func RequestLogger(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			log := logger.From(r.Context(), fallback)

			var reqBody []byte
			if r.Body != nil {
				reqBody, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBytes+1))
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), r.Body))
			}

			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", redactHeaders(r.Header),
				"body", redactBody(reqBody),
			)

			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.Status()
			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			log.Log(r.Context(), level, "response",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", rec.size,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *recorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (rw *recorder) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

func isRedacted(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range redactedKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isRedacted(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// redactBody returns the body for logging. Non-JSON and oversized bodies are
// summarised rather than echoed.
func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxLoggedBytes {
		return "[TRUNCATED]"
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "[NON-JSON BODY]"
	}

	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return "[UNPRINTABLE BODY]"
	}
	return string(out)
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if isRedacted(k) {
				out[k] = redacted
				continue
			}
			out[k] = redactValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}
