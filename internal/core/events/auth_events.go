package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoginSucceeded = "auth.login_succeeded"
	EventTypeLoginFailed    = "auth.login_failed"
	EventTypeAccountBlocked = "auth.account_blocked"
	EventTypeLoggedOut      = "auth.logged_out"
)

// AuthEvent describes one authentication outcome for a user account.
type AuthEvent struct {
	BaseEvent
	UserID         int64  `json:"user_id"`
	LoginCode      string `json:"login_code"`
	OriginAddress  string `json:"origin_address,omitempty"`
	FailedAttempts int    `json:"failed_attempts,omitempty"`
}

func NewAuthEvent(eventType string, userID int64, loginCode, origin string, failedAttempts int) *AuthEvent {
	return &AuthEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"user_id":         userID,
				"login_code":      loginCode,
				"origin_address":  origin,
				"failed_attempts": failedAttempts,
			},
		},
		UserID:         userID,
		LoginCode:      loginCode,
		OriginAddress:  origin,
		FailedAttempts: failedAttempts,
	}
}

// AuditLog returns a handler that writes every auth event as one structured
// log line.
func AuditLog(lg *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		attrs := []any{
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
		}
		if ae, ok := event.(*AuthEvent); ok {
			attrs = append(attrs,
				"user_id", ae.UserID,
				"login_code", ae.LoginCode,
				"origin", ae.OriginAddress,
				"failed_attempts", ae.FailedAttempts)
		}
		level := slog.LevelInfo
		if event.EventType() == EventTypeAccountBlocked {
			level = slog.LevelWarn
		}
		lg.Log(ctx, level, "auth event", attrs...)
		return nil
	}
}
