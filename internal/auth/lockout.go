package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/casetrack/internal"
)

type LockoutState int

const (
	StateActive LockoutState = iota
	StateBlocked
)

func (s LockoutState) String() string {
	if s == StateBlocked {
		return "blocked"
	}
	return "active"
}

// AttemptStore is the slice of the credential store the lockout policy writes to.
type AttemptStore interface {
	IncrementFailedAttempts(ctx context.Context, userID int64) (int, error)
	ResetFailedAttempts(ctx context.Context, userID int64, at time.Time) error
	SetBlocked(ctx context.Context, userID int64, blocked bool, at time.Time) error
}

// FailureOutcome is the result of recording one failed password check.
type FailureOutcome struct {
	Attempts    int
	Blocked     bool
	JustBlocked bool
}

// LockoutPolicy moves an account from Active to Blocked once its failed
// attempt counter reaches maxAttempts. Leaving Blocked is an administrative
// action outside this policy.
type LockoutPolicy struct {
	store       AttemptStore
	maxAttempts int
	now         func() time.Time
}

func NewLockoutPolicy(store AttemptStore, maxAttempts int) *LockoutPolicy {
	if maxAttempts < 1 {
		maxAttempts = internal.DefaultMaxLoginAttempts
	}
	return &LockoutPolicy{
		store:       store,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (p *LockoutPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// State derives the lockout state from the stored flag and counter.
func (p *LockoutPolicy) State(failedAttempts int, blocked bool) LockoutState {
	if blocked || failedAttempts >= p.maxAttempts {
		return StateBlocked
	}
	return StateActive
}

func (p *LockoutPolicy) IsBlocked(u *User) bool {
	return p.State(u.FailedAttempts, u.Blocked) == StateBlocked
}

// RegisterFailure increments the counter at the storage layer and blocks the
// account when the post-increment value reaches the threshold.
func (p *LockoutPolicy) RegisterFailure(ctx context.Context, userID int64) (FailureOutcome, error) {
	attempts, err := p.store.IncrementFailedAttempts(ctx, userID)
	if err != nil {
		return FailureOutcome{}, fmt.Errorf("increment failed attempts: %w", err)
	}

	outcome := FailureOutcome{Attempts: attempts}
	if attempts >= p.maxAttempts {
		if err := p.store.SetBlocked(ctx, userID, true, p.now()); err != nil {
			return outcome, fmt.Errorf("block account: %w", err)
		}
		outcome.Blocked = true
		outcome.JustBlocked = attempts == p.maxAttempts
	}
	return outcome, nil
}

// RegisterSuccess clears the counter and stamps the access time.
func (p *LockoutPolicy) RegisterSuccess(ctx context.Context, userID int64, at time.Time) error {
	if err := p.store.ResetFailedAttempts(ctx, userID, at); err != nil {
		return fmt.Errorf("reset failed attempts: %w", err)
	}
	return nil
}
