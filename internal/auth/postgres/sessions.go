package postgres

import (
	"context"
	"fmt"
	"time"

	sessionDatamodel "github.com/frahmantamala/casetrack/internal/core/datamodel/session"
	"gorm.io/gorm"
)

// SessionRepository implements auth.SessionRegistry using GORM. A session is
// live while expires_at is NULL.
type SessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

func (r *SessionRepository) Create(ctx context.Context, userID int64, token, originAddress string) error {
	row := &sessionDatamodel.Session{
		UserID:        userID,
		Token:         token,
		OriginAddress: originAddress,
		CreatedAt:     r.now(),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Exists(ctx context.Context, token string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&sessionDatamodel.Session{}).
		Where("token = ? AND expires_at IS NULL", token).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return count > 0, nil
}

// Invalidate stamps expires_at on a live session. Rows are never deleted.
func (r *SessionRepository) Invalidate(ctx context.Context, token string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&sessionDatamodel.Session{}).
		Where("token = ? AND expires_at IS NULL", token).
		Update("expires_at", at).Error
	if err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}
