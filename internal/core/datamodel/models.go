package datamodel

import (
	"github.com/frahmantamala/casetrack/internal/core/datamodel/session"
	"github.com/frahmantamala/casetrack/internal/core/datamodel/user"
)

// All lists every persisted model in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&user.Role{},
		&user.Area{},
		&user.User{},
		&session.Session{},
	}
}
