package user

import (
	"net/mail"
	"strings"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/core/common/validation"
	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
)

// CreateUserDTO is the request payload for POST /users.
type CreateUserDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (dto CreateUserDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("username", dto.Username).Required().MinLength(3).MaxLength(50)
	validator.Field("email", dto.Email).Required().Custom(validEmail("email"))
	validator.Field("password", dto.Password).Required().MinLength(6)
	validator.Field("role", dto.Role).
		Required().
		OneOf(roleNames(), errors.ErrCodeInvalidRole)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateUserDTO is the request payload for PUT /users/{id}. Only fields
// present in the body are applied. Permissions overrides are honored for
// admin callers only.
type UpdateUserDTO struct {
	Username    *string          `json:"username,omitempty"`
	Email       *string          `json:"email,omitempty"`
	Password    *string          `json:"password,omitempty"`
	Role        *string          `json:"role,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
	Permissions *permissions.Set `json:"permissions,omitempty"`
}

func (dto UpdateUserDTO) Validate() error {
	validator := validation.NewValidator()

	if dto.Username != nil {
		validator.Field("username", *dto.Username).Required().MinLength(3).MaxLength(50)
	}
	if dto.Email != nil {
		validator.Field("email", *dto.Email).Required().Custom(validEmail("email"))
	}
	if dto.Password != nil {
		validator.Field("password", *dto.Password).Required().MinLength(6)
	}
	if dto.Role != nil {
		validator.Field("role", *dto.Role).OneOf(roleNames(), errors.ErrCodeInvalidRole)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ListFilter narrows and pages the staff listing.
type ListFilter struct {
	Search    *string
	Role      *permissions.Role
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	switch f.SortBy {
	case "username", "email", "role", "created_at", "last_login":
	default:
		f.SortBy = "created_at"
	}
	if f.SortOrder != "ASC" && f.SortOrder != "asc" {
		f.SortOrder = "DESC"
	}
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ListResult is the paginated envelope returned by GET /users.
type ListResult struct {
	Users       []*User `json:"users"`
	Total       int64   `json:"totalUsers"`
	TotalPages  int     `json:"totalPages"`
	CurrentPage int     `json:"currentPage"`
}

func roleNames() []string {
	return []string{
		string(permissions.RoleAdmin),
		string(permissions.RoleManager),
		string(permissions.RoleCashier),
	}
}

func validEmail(field string) func(interface{}) *errors.AppError {
	return func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != strings.TrimSpace(v) {
			return errors.NewValidationFieldError(field, "please provide a valid email", errors.ErrCodeValidationFailed)
		}
		return nil
	}
}
