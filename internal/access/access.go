// Package access holds the ownership policy shared by the middleware and the
// list handlers: admins see everything, everyone else sees the records whose
// owner columns (user_id, marketer_id, organizer_id) hold their own id.
package access

import (
	"strings"

	"managemint/internal/models"

	"gorm.io/gorm"
)

// CanAccess reports whether u may read or modify r.
func CanAccess(u *models.User, r models.Owned) bool {
	if u == nil || r == nil {
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, id := range r.OwnerIDs() {
		if id == u.ID {
			return true
		}
	}
	return false
}

// Scope restricts a query on owned's table to rows owned by u.
// Admins are not restricted. A nil user matches nothing.
func Scope(u *models.User, owned models.Owned) func(*gorm.DB) *gorm.DB {
	return ScopeColumns(u, owned.OwnerColumns()...)
}

// ScopeColumns is Scope with explicit owner columns, for queries that join or
// alias tables. Column names must be trusted constants.
func ScopeColumns(u *models.User, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if u == nil || len(columns) == 0 {
			return db.Where("1 = 0")
		}
		if u.IsAdmin() {
			return db
		}
		conds := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		for _, col := range columns {
			conds = append(conds, col+" = ?")
			args = append(args, u.ID)
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
