package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/user"
	"github.com/jmoiron/sqlx"
)

const profileQuery = `
SELECT u.id, u.login_code, u.full_name, u.role_id,
       r.name AS role_name, r.permission_bitmask,
       u.area_id, COALESCE(a.name, '') AS area_name,
       u.last_access_at,
       (SELECT COUNT(*) FROM sessions s
         WHERE s.user_id = u.id AND s.expires_at IS NULL) AS active_sessions
FROM users u
JOIN roles r ON r.id = u.role_id
LEFT JOIN areas a ON a.id = u.area_id
WHERE u.id = ?`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProfile(ctx context.Context, userID int64) (*user.Profile, error) {
	var p user.Profile
	if err := r.db.GetContext(ctx, &p, r.db.Rebind(profileQuery), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, fmt.Errorf("profile query: %w", err)
	}
	return &p, nil
}
