package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/core/events"
	"github.com/frahmantamala/casetrack/pkg/logger"
	"github.com/google/uuid"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO, originAddress string) (*LoginResult, error)
	Logout(ctx context.Context, token, originAddress string) error
	Authorize(ctx context.Context, token string) (*Claims, error)
	RenewToken(ctx context.Context, token, originAddress string) (string, error)
	CurrentUser(ctx context.Context, userID int64) (*UserView, error)
}

type ServiceConfig struct {
	TokenTTL         time.Duration
	MaxLoginAttempts int
}

// Service orchestrates login, logout and per-request authorization.
type Service struct {
	credentials CredentialStore
	sessions    SessionRegistry
	tokens      TokenIssuer
	passwords   PasswordVerifier
	lockout     *LockoutPolicy
	events      EventPublisher
	tokenTTL    time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// NewService creates a new auth service. publisher may be nil.
func NewService(
	credentials CredentialStore,
	sessions SessionRegistry,
	tokens TokenIssuer,
	passwords PasswordVerifier,
	publisher EventPublisher,
	cfg ServiceConfig,
	lg *slog.Logger,
) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = internal.DefaultTokenTTL
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{
		credentials: credentials,
		sessions:    sessions,
		tokens:      tokens,
		passwords:   passwords,
		lockout:     NewLockoutPolicy(credentials, cfg.MaxLoginAttempts),
		events:      publisher,
		tokenTTL:    cfg.TokenTTL,
		now:         time.Now,
		logger:      lg,
	}
}

func (s *Service) Lockout() *LockoutPolicy {
	return s.lockout
}

// Login verifies the credentials and, on success, issues a token backed by a
// new session row.
func (s *Service) Login(ctx context.Context, dto LoginDTO, originAddress string) (*LoginResult, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}
	log := logger.From(ctx, s.logger).With("login_code", dto.LoginCode, "origin", originAddress)

	user, err := s.credentials.FindByLoginCode(ctx, dto.LoginCode)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			log.Info("login rejected: unknown login code")
			return nil, internal.ErrInvalidCredentials
		}
		return nil, s.internalError(log, "credential lookup failed", err)
	}

	if s.lockout.IsBlocked(user) {
		log.Warn("login rejected: account blocked", "user_id", user.ID)
		return nil, internal.ErrAccountBlocked
	}

	ok, err := s.passwords.Verify(dto.Password, user.PasswordHash)
	if err != nil {
		return nil, s.internalError(log, "password verification failed", err)
	}

	if !ok {
		outcome, err := s.lockout.RegisterFailure(ctx, user.ID)
		if err != nil {
			return nil, s.internalError(log, "failed to record login failure", err)
		}
		log.Info("login rejected: wrong password",
			"user_id", user.ID,
			"failed_attempts", outcome.Attempts,
			"max_attempts", s.lockout.MaxAttempts())
		s.publish(ctx, events.EventTypeLoginFailed, user, originAddress, outcome.Attempts)
		if outcome.JustBlocked {
			log.Warn("account blocked after too many failed attempts", "user_id", user.ID)
			s.publish(ctx, events.EventTypeAccountBlocked, user, originAddress, outcome.Attempts)
		}
		return nil, internal.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.lockout.RegisterSuccess(ctx, user.ID, now); err != nil {
		return nil, s.internalError(log, "failed to record login success", err)
	}
	user.FailedAttempts = 0
	user.LastAccessAt = &now

	token, err := s.tokens.Sign(s.claimsFor(user), s.tokenTTL)
	if err != nil {
		return nil, s.internalError(log, "failed to sign token", err)
	}

	if err := s.sessions.Create(ctx, user.ID, token, originAddress); err != nil {
		return nil, s.internalError(log, "failed to create session", err)
	}

	log.Info("login succeeded", "user_id", user.ID, "role_id", user.RoleID)
	s.publish(ctx, events.EventTypeLoginSucceeded, user, originAddress, 0)

	return &LoginResult{Token: token, User: user.View()}, nil
}

// Logout marks the token's session as expired. Unknown, already revoked and
// empty tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token, originAddress string) error {
	if token == "" {
		return nil
	}
	log := logger.From(ctx, s.logger)

	if err := s.sessions.Invalidate(ctx, token, s.now()); err != nil {
		return s.internalError(log, "failed to invalidate session", err)
	}

	if claims, err := s.tokens.Verify(token); err == nil {
		log.Info("logout", "user_id", claims.UserID)
		s.publish(ctx, events.EventTypeLoggedOut, &User{ID: claims.UserID, LoginCode: claims.LoginCode}, originAddress, 0)
	}
	return nil
}

// Authorize runs the per-request identity checks: signature and expiry, live
// session, and an account that has not been blocked since issuance.
func (s *Service) Authorize(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, internal.ErrTokenMissing
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	log := logger.From(ctx, s.logger).With("user_id", claims.UserID)

	live, err := s.sessions.Exists(ctx, token)
	if err != nil {
		return nil, s.internalError(log, "session lookup failed", err)
	}
	if !live {
		return nil, internal.ErrSessionRevoked
	}

	blocked, err := s.credentials.IsBlocked(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken.WithCause(err)
		}
		return nil, s.internalError(log, "blocked check failed", err)
	}
	if blocked {
		return nil, internal.ErrAccountBlocked
	}

	return claims, nil
}

// RenewToken swaps a live token for a freshly signed one with the same
// identity claims. The new token gets its own session and the old session is
// invalidated.
func (s *Service) RenewToken(ctx context.Context, token, originAddress string) (string, error) {
	claims, err := s.Authorize(ctx, token)
	if err != nil {
		return "", err
	}
	log := logger.From(ctx, s.logger).With("user_id", claims.UserID)

	renewed := Claims{
		UserID:      claims.UserID,
		LoginCode:   claims.LoginCode,
		RoleID:      claims.RoleID,
		Permissions: claims.Permissions,
	}
	renewed.ID = uuid.NewString()

	newToken, err := s.tokens.Sign(renewed, s.tokenTTL)
	if err != nil {
		return "", s.internalError(log, "failed to sign renewed token", err)
	}
	if err := s.sessions.Create(ctx, claims.UserID, newToken, originAddress); err != nil {
		return "", s.internalError(log, "failed to create renewed session", err)
	}
	if err := s.sessions.Invalidate(ctx, token, s.now()); err != nil {
		return "", s.internalError(log, "failed to invalidate previous session", err)
	}

	log.Info("token renewed")
	return newToken, nil
}

// CurrentUser loads the canonical view of an authenticated user.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*UserView, error) {
	user, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, s.internalError(logger.From(ctx, s.logger), "user lookup failed", err)
	}
	view := user.View()
	return &view, nil
}

func (s *Service) claimsFor(u *User) Claims {
	c := Claims{
		UserID:      u.ID,
		LoginCode:   u.LoginCode,
		RoleID:      u.RoleID,
		Permissions: u.Permissions,
	}
	c.ID = uuid.NewString()
	return c
}

func (s *Service) publish(ctx context.Context, eventType string, u *User, origin string, attempts int) {
	if s.events == nil {
		return
	}
	event := events.NewAuthEvent(eventType, u.ID, u.LoginCode, origin, attempts)
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish auth event", "event_type", eventType, "error", err)
	}
}

func (s *Service) internalError(log *slog.Logger, message string, cause error) *internal.AppError {
	log.Error(message, "error", cause)
	return internal.NewInternalError("Internal server error", cause)
}
