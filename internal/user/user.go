package user

import (
	"time"

	"github.com/frahmantamala/casetrack/internal/auth"
)

// Profile is the signed-in user as shown on their own account page.
type Profile struct {
	ID                int64           `json:"id" db:"id"`
	LoginCode         string          `json:"loginCode" db:"login_code"`
	FullName          string          `json:"fullName" db:"full_name"`
	RoleID            int64           `json:"roleId" db:"role_id"`
	RoleName          string          `json:"roleName" db:"role_name"`
	PermissionBitmask auth.Permission `json:"permissionBitmask" db:"permission_bitmask"`
	Permissions       []string        `json:"permissions" db:"-"`
	AreaID            *int64          `json:"areaId,omitempty" db:"area_id"`
	AreaName          string          `json:"areaName,omitempty" db:"area_name"`
	LastAccessAt      *time.Time      `json:"lastAccessAt,omitempty" db:"last_access_at"`
	ActiveSessions    int             `json:"activeSessions" db:"active_sessions"`
}

func (p *Profile) Can(required auth.Permission) bool {
	return auth.HasPermission(p.PermissionBitmask, required)
}
