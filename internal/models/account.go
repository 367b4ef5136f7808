package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates authorization decisions. An account with no role can log in but
// passes no role gate.
type Role string

const (
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleParent
}

// Account is created on the first login of a mini-program user.
type Account struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OpenID        string    `gorm:"size:64;not null;uniqueIndex:idx_accounts_open_id" json:"-"`
	UnionID       *string   `gorm:"size:64;index" json:"-"`
	Name          string    `gorm:"size:100" json:"name"`
	Role          *Role     `gorm:"size:20" json:"role"`
	Points        int       `gorm:"not null;default:0" json:"points"`
	MonthlyPoints int       `gorm:"not null;default:0" json:"monthlyPoints"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasRole reports whether the account holds one of roles.
func (a *Account) HasRole(roles ...Role) bool {
	if a == nil || a.Role == nil {
		return false
	}
	for _, r := range roles {
		if *a.Role == r {
			return true
		}
	}
	return false
}
