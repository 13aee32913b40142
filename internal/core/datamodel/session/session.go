package session

import "time"

// Session is one row per issued bearer token. ExpiresAt stays NULL while the
// token is live and is set on logout.
type Session struct {
	ID            int64      `gorm:"primaryKey"`
	UserID        int64      `gorm:"column:user_id;not null;index"`
	Token         string     `gorm:"column:token;not null;uniqueIndex"`
	OriginAddress string     `gorm:"column:origin_address;size:64"`
	ExpiresAt     *time.Time `gorm:"column:expires_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
}

func (Session) TableName() string { return "sessions" }
