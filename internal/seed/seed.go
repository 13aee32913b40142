// Package seed loads the default roles and development accounts.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/casetrack/internal/auth"
	"github.com/frahmantamala/casetrack/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/casetrack/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type RoleSeed struct {
	Name        string
	Permissions auth.Permission
}

type UserSeed struct {
	LoginCode string
	FullName  string
	Role      string
	Area      string
}

var DefaultRoles = []RoleSeed{
	{Name: "administrator", Permissions: auth.PermAll},
	{Name: "clerk", Permissions: auth.PermCreate | auth.PermEdit | auth.PermView | auth.PermDerive},
	{Name: "auditor", Permissions: auth.PermView | auth.PermAudit | auth.PermExport},
}

var DefaultAreas = []string{"civil", "criminal", "archive"}

var DefaultUsers = []UserSeed{
	{LoginCode: "admin", FullName: "Records Administrator", Role: "administrator"},
	{LoginCode: "clerk01", FullName: "Civil Desk Clerk", Role: "clerk", Area: "civil"},
	{LoginCode: "auditor01", FullName: "Internal Auditor", Role: "auditor"},
}

type Hasher interface {
	Hash(password string) (string, error)
}

// Seeder inserts missing rows and leaves existing ones alone.
type Seeder struct {
	db     *gorm.DB
	hasher Hasher
	logger *slog.Logger
}

func New(db *gorm.DB, hasher Hasher, lg *slog.Logger) *Seeder {
	return &Seeder{db: db, hasher: hasher, logger: lg}
}

// Run seeds roles, areas and users. Every seeded user gets password.
// With clear set, existing sessions and users are removed first.
func (s *Seeder) Run(ctx context.Context, password string, clear bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clear {
			if err := tx.Where("1 = 1").Delete(&session.Session{}).Error; err != nil {
				return fmt.Errorf("clear sessions: %w", err)
			}
			if err := tx.Where("1 = 1").Delete(&userDatamodel.User{}).Error; err != nil {
				return fmt.Errorf("clear users: %w", err)
			}
		}

		roles := make(map[string]int64, len(DefaultRoles))
		for _, r := range DefaultRoles {
			row := userDatamodel.Role{Name: r.Name}
			err := tx.Where(userDatamodel.Role{Name: r.Name}).
				Attrs(userDatamodel.Role{PermissionBitmask: uint8(r.Permissions)}).
				FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("seed role %s: %w", r.Name, err)
			}
			roles[r.Name] = row.ID
			s.logger.Info("role ready", "role", r.Name, "permissions", r.Permissions.String())
		}

		areas := make(map[string]int64, len(DefaultAreas))
		for _, name := range DefaultAreas {
			row := userDatamodel.Area{Name: name}
			if err := tx.Where(userDatamodel.Area{Name: name}).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed area %s: %w", name, err)
			}
			areas[name] = row.ID
		}

		for _, u := range DefaultUsers {
			roleID, ok := roles[u.Role]
			if !ok {
				return fmt.Errorf("seed user %s: unknown role %s", u.LoginCode, u.Role)
			}

			hash, err := s.hasher.Hash(password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", u.LoginCode, err)
			}

			attrs := userDatamodel.User{
				FullName:     u.FullName,
				PasswordHash: hash,
				Salt:         auth.SaltOf(hash),
				RoleID:       roleID,
			}
			if u.Area != "" {
				areaID := areas[u.Area]
				attrs.AreaID = &areaID
			}

			row := userDatamodel.User{LoginCode: u.LoginCode}
			if err := tx.Where(userDatamodel.User{LoginCode: u.LoginCode}).Attrs(attrs).FirstOrCreate(&row).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.LoginCode, err)
			}
			s.logger.Info("user ready", "login_code", u.LoginCode, "role", u.Role)
		}
		return nil
	})
}
