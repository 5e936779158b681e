package models

import (
	"time"

	"gorm.io/datatypes"
)

// AdminSession is a server-side session row. The cookie only carries a signed reference to SID.
type AdminSession struct {
	SID    string            `json:"sid" gorm:"column:sid;size:64;primaryKey"`
	Sess   datatypes.JSONMap `json:"sess" gorm:"not null"`
	Expire time.Time         `json:"expire" gorm:"not null;index:idx_admin_session_expire"`
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}

// IsAdmin reads the admin flag stored in the session payload.
func (s AdminSession) IsAdmin() bool {
	v, ok := s.Sess["isAdmin"].(bool)
	return ok && v
}

// Username reads the username stored in the session payload.
func (s AdminSession) Username() string {
	v, _ := s.Sess["username"].(string)
	return v
}
