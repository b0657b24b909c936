package user

import (
	"time"

	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
)

// Record status values. Deleted accounts stay on the table so ledger
// entries keep resolving to an actor.
const (
	RecordStatusActive  = "active"
	RecordStatusDeleted = "deleted"
)

// User is a staff account. PasswordHash never serializes.
type User struct {
	ID           int64            `json:"id" gorm:"primaryKey"`
	Username     string           `json:"username" gorm:"not null"`
	Email        string           `json:"email" gorm:"not null"`
	PasswordHash string           `json:"-" gorm:"column:password_hash;not null"`
	Role         permissions.Role `json:"role" gorm:"not null;default:CASHIER"`
	Permissions  permissions.Set  `json:"permissions" gorm:"type:jsonb;not null"`
	IsActive     bool             `json:"is_active" gorm:"column:is_active;not null;default:true"`
	LastLogin    *time.Time       `json:"last_login,omitempty" gorm:"column:last_login"`
	RecordStatus string           `json:"-" gorm:"column:record_status;not null;default:active"`
	CreatedAt    time.Time        `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Can reports whether this account may perform the given action.
// Admins always may.
func (u *User) Can(cap permissions.Capability) bool {
	return permissions.Allowed(u.Role, u.Permissions, cap)
}

func (u *User) IsAdmin() bool {
	return u.Role == permissions.RoleAdmin
}
