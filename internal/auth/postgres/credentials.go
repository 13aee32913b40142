package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/casetrack/internal"
	"github.com/frahmantamala/casetrack/internal/auth"
	userDatamodel "github.com/frahmantamala/casetrack/internal/core/datamodel/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository implements auth.CredentialStore using GORM.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// FindByLoginCode fetches the user joined with its role bitmask.
func (r *CredentialRepository) FindByLoginCode(ctx context.Context, loginCode string) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Joins("Role").
		Where("users.login_code = ?", loginCode).
		First(&row).Error
	if err != nil {
		return nil, notFoundOr(err, "find user by login code")
	}
	return toDomain(&row), nil
}

func (r *CredentialRepository) FindByID(ctx context.Context, userID int64) (*auth.User, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Joins("Role").
		Where("users.id = ?", userID).
		First(&row).Error
	if err != nil {
		return nil, notFoundOr(err, "find user by id")
	}
	return toDomain(&row), nil
}

// IncrementFailedAttempts bumps the counter in one UPDATE ... RETURNING, so
// each caller sees the value its own increment produced.
func (r *CredentialRepository) IncrementFailedAttempts(ctx context.Context, userID int64) (int, error) {
	var row userDatamodel.User
	res := r.db.WithContext(ctx).
		Model(&row).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "failed_attempts"}}}).
		Where("id = ?", userID).
		Update("failed_attempts", gorm.Expr("failed_attempts + ?", 1))
	if res.Error != nil {
		return 0, fmt.Errorf("increment failed attempts: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, internal.ErrUserNotFound
	}
	return row.FailedAttempts, nil
}

func (r *CredentialRepository) ResetFailedAttempts(ctx context.Context, userID int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"failed_attempts": 0,
			"last_access_at":  at,
		})
	if res.Error != nil {
		return fmt.Errorf("reset failed attempts: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// SetBlocked sets the blocked flag; blocking also stamps last_block_at.
func (r *CredentialRepository) SetBlocked(ctx context.Context, userID int64, blocked bool, at time.Time) error {
	values := map[string]interface{}{"blocked": blocked}
	if blocked {
		values["last_block_at"] = at
	}

	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("set blocked: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *CredentialRepository) IsBlocked(ctx context.Context, userID int64) (bool, error) {
	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "blocked").
		Where("id = ?", userID).
		Take(&row).Error
	if err != nil {
		return false, notFoundOr(err, "check blocked")
	}
	return row.Blocked, nil
}

func toDomain(row *userDatamodel.User) *auth.User {
	return &auth.User{
		ID:             row.ID,
		LoginCode:      row.LoginCode,
		FullName:       row.FullName,
		PasswordHash:   row.PasswordHash,
		Salt:           row.Salt,
		RoleID:         row.RoleID,
		RoleName:       row.Role.Name,
		Permissions:    auth.Permission(row.Role.PermissionBitmask),
		AreaID:         row.AreaID,
		FailedAttempts: row.FailedAttempts,
		Blocked:        row.Blocked,
		LastBlockAt:    row.LastBlockAt,
		LastAccessAt:   row.LastAccessAt,
	}
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
