package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/casetrack/internal/core/events"
	"github.com/golang-jwt/jwt/v5"
)

// User is the credential record as the auth core sees it: the user row joined
// with its role bitmask.
type User struct {
	ID             int64
	LoginCode      string
	FullName       string
	PasswordHash   string
	Salt           string
	RoleID         int64
	RoleName       string
	Permissions    Permission
	AreaID         *int64
	FailedAttempts int
	Blocked        bool
	LastBlockAt    *time.Time
	LastAccessAt   *time.Time
}

// UserView is the canonical user shape returned across the HTTP boundary.
// Password fields never leave the core.
type UserView struct {
	ID                int64      `json:"id"`
	LoginCode         string     `json:"loginCode"`
	FullName          string     `json:"fullName,omitempty"`
	RoleID            int64      `json:"roleId"`
	RoleName          string     `json:"roleName,omitempty"`
	AreaID            *int64     `json:"areaId,omitempty"`
	PermissionBitmask Permission `json:"permissionBitmask"`
	Permissions       []string   `json:"permissions"`
	Blocked           bool       `json:"blocked"`
	LastAccessAt      *time.Time `json:"lastAccessAt,omitempty"`
}

func (u *User) View() UserView {
	return UserView{
		ID:                u.ID,
		LoginCode:         u.LoginCode,
		FullName:          u.FullName,
		RoleID:            u.RoleID,
		RoleName:          u.RoleName,
		AreaID:            u.AreaID,
		PermissionBitmask: u.Permissions,
		Permissions:       u.Permissions.Names(),
		Blocked:           u.Blocked,
		LastAccessAt:      u.LastAccessAt,
	}
}

// Claims is the payload embedded in every bearer token.
type Claims struct {
	UserID      int64      `json:"id"`
	LoginCode   string     `json:"loginCode"`
	RoleID      int64      `json:"roleId"`
	Permissions Permission `json:"permissionBitmask"`
	jwt.RegisteredClaims
}

// CredentialStore reads and writes user authentication records.
type CredentialStore interface {
	AttemptStore
	FindByLoginCode(ctx context.Context, loginCode string) (*User, error)
	FindByID(ctx context.Context, userID int64) (*User, error)
	IsBlocked(ctx context.Context, userID int64) (bool, error)
}

// SessionRegistry persists one row per issued token.
type SessionRegistry interface {
	Create(ctx context.Context, userID int64, token, originAddress string) error
	Exists(ctx context.Context, token string) (bool, error)
	Invalidate(ctx context.Context, token string, at time.Time) error
}

// TokenIssuer creates and verifies signed, time-limited bearer tokens.
type TokenIssuer interface {
	Sign(claims Claims, ttl time.Duration) (string, error)
	Verify(token string) (*Claims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type ctxKey string

const ContextClaimsKey ctxKey = "claims"

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ContextClaimsKey).(*Claims)
	return c, ok && c != nil
}

func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ContextClaimsKey, claims)
}
