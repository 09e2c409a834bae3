package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleUser     UserRole = "user"
	RoleMarketer UserRole = "marketer"
	RoleAdmin    UserRole = "admin"
)

// User is the single identity table: in-house engineers, marketers and admins.
type User struct {
	Base
	Name         string   `gorm:"size:255;not null" json:"name"`
	Email        string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null;index" json:"role"`
	Phone        string   `gorm:"size:50" json:"phone"`
	Designation  string   `gorm:"size:100" json:"designation"`
	Department   string   `gorm:"size:100" json:"department"`

	LastActive         *time.Time `json:"lastActive,omitempty"`
	MustChangePassword bool       `gorm:"not null" json:"mustChangePassword"`

	// sha256 of the emailed reset token
	ResetTokenHash   string     `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...UserRole) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u User) OwnerIDs() []uuid.UUID { return []uuid.UUID{u.ID} }
func (User) OwnerColumns() []string  { return []string{"id"} }
