package auth

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/core/common/validation"
	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
)

// Account is the storage view of a staff account the auth package works
// with. It maps the same users table the user package manages; auth only
// ever reads it, except for registration and last_login.
type Account struct {
	ID           int64            `json:"id" gorm:"primaryKey"`
	Username     string           `json:"username"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-" gorm:"column:password_hash"`
	Role         permissions.Role `json:"role"`
	Permissions  permissions.Set  `json:"permissions" gorm:"type:jsonb"`
	IsActive     bool             `json:"is_active" gorm:"column:is_active"`
	LastLogin    *time.Time       `json:"last_login,omitempty" gorm:"column:last_login"`
	RecordStatus string           `json:"-" gorm:"column:record_status"`
	CreatedAt    time.Time        `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"column:updated_at"`
}

func (Account) TableName() string {
	return "users"
}

// Session builds the request-scoped identity for this account.
func (a *Account) Session() *SessionUser {
	return &SessionUser{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		Role:        a.Role,
		Permissions: a.Permissions,
	}
}

// LoginDTO is the request payload for POST /auth/login. Username also
// accepts the account email.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (d LoginDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("username", d.Username).Required()
	validator.Field("password", d.Password).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// RegisterDTO is the request payload for POST /auth/register. Role
// defaults to CASHIER when omitted.
type RegisterDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (d RegisterDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("username", d.Username).Required().MinLength(3).MaxLength(50)
	validator.Field("email", d.Email).Required()
	validator.Field("password", d.Password).Required().MinLength(6)
	if d.Role != "" {
		validator.Field("role", d.Role).OneOf([]string{
			string(permissions.RoleAdmin),
			string(permissions.RoleManager),
			string(permissions.RoleCashier),
		}, errors.ErrCodeInvalidRole)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (d RefreshTokenDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("refresh_token", d.RefreshToken).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
