package user

import (
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
	"golang.org/x/crypto/bcrypt"
)

// Repository defines staff account data access. Mutations take the ledger
// record documenting them and persist both in one transaction.
type Repository interface {
	Create(u *User, rec *audit.Record) error
	GetByID(id int64) (*User, error)
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	List(filter ListFilter) ([]*User, int64, error)
	Update(u *User, rec *audit.Record) error
	SoftDelete(u *User, rec *audit.Record) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) List(filter ListFilter) (*ListResult, error) {
	filter.Normalize()

	users, total, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ListResult{
		Users:       users,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: filter.Page,
	}, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, err
	}
	return u, nil
}

// Create adds a staff account with the default permission set for its role.
func (s *Service) Create(actorID int64, actorUsername string, dto CreateUserDTO, meta audit.RequestMeta) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err, "actor_id", actorID)
		return nil, err
	}

	if existing, err := s.repo.GetByUsername(dto.Username); err == nil && existing != nil {
		return nil, errors.NewConflictError("User already exists with this username or email", errors.ErrCodeDuplicateUsername)
	}
	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, errors.NewConflictError("User already exists with this username or email", errors.ErrCodeDuplicateEmail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, errors.NewInternalError("failed to create user", err)
	}

	role := permissions.Role(dto.Role)
	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  permissions.Defaults(role),
		IsActive:     true,
		RecordStatus: RecordStatusActive,
	}

	rec := (&audit.Record{
		UserID:      actorID,
		Kind:        audit.KindUserCreate,
		Description: fmt.Sprintf("User created: %s (%s) by %s", dto.Username, dto.Role, actorUsername),
		Metadata: audit.Metadata{
			"role":      dto.Role,
			"email":     dto.Email,
			"createdBy": actorUsername,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.Create(u, rec); err != nil {
		s.logger.Error("failed to create user", "error", err, "actor_id", actorID)
		return nil, err
	}

	s.logger.Info("user created",
		"user_id", u.ID,
		"username", u.Username,
		"role", u.Role,
		"actor_id", actorID)

	return u, nil
}

// Update applies partial changes to a staff account. Changing the role
// resets permissions to that role's defaults; explicit permission
// overrides are applied on top, and only when the caller is an admin.
func (s *Service) Update(actorID int64, actorUsername string, actorIsAdmin bool, id int64, dto UpdateUserDTO, meta audit.RequestMeta) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err, "user_id", id)
		return nil, err
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	changes := audit.Metadata{}

	if dto.Username != nil && *dto.Username != u.Username {
		if existing, err := s.repo.GetByUsername(*dto.Username); err == nil && existing != nil && existing.ID != u.ID {
			return nil, errors.ErrDuplicateUsername
		}
		u.Username = *dto.Username
		changes["username"] = *dto.Username
	}

	if dto.Email != nil && *dto.Email != u.Email {
		if existing, err := s.repo.GetByEmail(*dto.Email); err == nil && existing != nil && existing.ID != u.ID {
			return nil, errors.ErrDuplicateEmail
		}
		u.Email = *dto.Email
		changes["email"] = *dto.Email
	}

	if dto.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to hash password", "error", err)
			return nil, errors.NewInternalError("failed to update user", err)
		}
		u.PasswordHash = string(hash)
		changes["password"] = "changed"
	}

	if dto.Role != nil && permissions.Role(*dto.Role) != u.Role {
		u.Role = permissions.Role(*dto.Role)
		u.Permissions = permissions.Defaults(u.Role)
		changes["role"] = *dto.Role
	}

	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
		changes["isActive"] = *dto.IsActive
	}

	if dto.Permissions != nil && actorIsAdmin {
		u.Permissions = u.Permissions.Merge(*dto.Permissions)
		changes["permissions"] = *dto.Permissions
	}

	rec := (&audit.Record{
		UserID:      actorID,
		Kind:        audit.KindUserUpdate,
		Description: fmt.Sprintf("User updated: %s by %s", u.Username, actorUsername),
		Metadata: audit.Metadata{
			"updatedUserId": u.ID,
			"updates":       changes,
			"updatedBy":     actorUsername,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.Update(u, rec); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("user updated", "user_id", u.ID, "actor_id", actorID)
	return u, nil
}

// Delete soft-deletes a staff account. Accounts cannot delete themselves.
func (s *Service) Delete(actorID int64, actorUsername string, id int64, meta audit.RequestMeta) error {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if u.ID == actorID {
		return errors.ErrCannotDeleteSelf
	}

	rec := (&audit.Record{
		UserID:      actorID,
		Kind:        audit.KindUserDelete,
		Description: fmt.Sprintf("User deleted: %s by %s", u.Username, actorUsername),
		Metadata: audit.Metadata{
			"deletedUserId":   u.ID,
			"deletedUsername": u.Username,
			"deletedBy":       actorUsername,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.SoftDelete(u, rec); err != nil {
		s.logger.Error("failed to delete user", "error", err, "user_id", id)
		return err
	}

	s.logger.Info("user deleted", "user_id", u.ID, "actor_id", actorID)
	return nil
}
