package user

import "time"

type User struct {
	ID             int64      `gorm:"primaryKey"`
	LoginCode      string     `gorm:"column:login_code;size:64;uniqueIndex;not null"`
	FullName       string     `gorm:"column:full_name;size:160"`
	PasswordHash   string     `gorm:"column:password_hash;not null"`
	Salt           string     `gorm:"column:salt;size:64"`
	RoleID         int64      `gorm:"column:role_id;not null;index"`
	AreaID         *int64     `gorm:"column:area_id;index"`
	FailedAttempts int        `gorm:"column:failed_attempts;not null;default:0"`
	Blocked        bool       `gorm:"column:blocked;not null;default:false"`
	LastBlockAt    *time.Time `gorm:"column:last_block_at"`
	LastAccessAt   *time.Time `gorm:"column:last_access_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`

	Role Role `gorm:"foreignKey:RoleID"`
}

func (User) TableName() string { return "users" }

type Role struct {
	ID                int64     `gorm:"primaryKey"`
	Name              string    `gorm:"column:name;size:80;uniqueIndex;not null"`
	PermissionBitmask uint8     `gorm:"column:permission_bitmask;not null;default:0"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (Role) TableName() string { return "roles" }

type Area struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;size:120;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (Area) TableName() string { return "areas" }
