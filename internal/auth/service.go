package auth

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
	"golang.org/x/crypto/bcrypt"
)

type ServiceAPI interface {
	Login(dto LoginDTO, meta audit.RequestMeta) (*Account, AuthTokens, error)
	Register(dto RegisterDTO, meta audit.RequestMeta) (*Account, AuthTokens, error)
	Logout(userID int64, username string, meta audit.RequestMeta) error
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetSessionUser(userID int64) (*SessionUser, error)
}

// RepositoryAPI is the account access the auth flows need. Mutations that
// take a ledger record persist both in one transaction.
type RepositoryAPI interface {
	GetByLogin(login string) (*Account, error)
	GetByID(id int64) (*Account, error)
	CreateAccount(acc *Account, rec *audit.Record) error
	RecordLogin(userID int64, at time.Time, rec *audit.Record) error
	CreateRecord(rec *audit.Record) error
}

type Service struct {
	repo           RepositoryAPI
	tokenGenerator TokenGeneratorAPI
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, tokenGen TokenGeneratorAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:           repo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Login validates credentials, stamps last_login, and writes the LOGIN
// ledger entry. Missing accounts, inactive accounts, and bad passwords
// are indistinguishable to the caller.
func (s *Service) Login(dto LoginDTO, meta audit.RequestMeta) (*Account, AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return nil, AuthTokens{}, err
	}

	acc, err := s.repo.GetByLogin(dto.Username)
	if err != nil {
		s.logger.Warn("login failed: account lookup", "username", dto.Username)
		return nil, AuthTokens{}, ErrInvalidCredentials
	}
	if !acc.IsActive {
		s.logger.Warn("login failed: inactive account", "user_id", acc.ID)
		return nil, AuthTokens{}, ErrInvalidCredentials
	}

	if err := VerifyPassword(acc.PasswordHash, dto.Password); err != nil {
		s.logger.Warn("login failed: password mismatch", "user_id", acc.ID)
		return nil, AuthTokens{}, ErrInvalidCredentials
	}

	now := time.Now()
	rec := (&audit.Record{
		UserID:      acc.ID,
		Kind:        audit.KindLogin,
		Description: fmt.Sprintf("User logged in: %s", acc.Username),
		Metadata:    audit.Metadata{},
	}).WithRequestMeta(meta)

	if err := s.repo.RecordLogin(acc.ID, now, rec); err != nil {
		s.logger.Error("failed to record login", "error", err, "user_id", acc.ID)
		return nil, AuthTokens{}, errors.NewInternalError("login failed", err)
	}
	acc.LastLogin = &now

	tokens, err := s.issueTokens(acc.ID)
	if err != nil {
		return nil, AuthTokens{}, err
	}

	s.logger.Info("login succeeded", "user_id", acc.ID, "username", acc.Username)
	return acc, tokens, nil
}

// Register creates a staff account with default permissions for its
// role and signs it in. The USER_CREATE ledger entry is attributed to
// the new account itself.
func (s *Service) Register(dto RegisterDTO, meta audit.RequestMeta) (*Account, AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return nil, AuthTokens{}, err
	}

	role := permissions.Role(dto.Role)
	if dto.Role == "" {
		role = permissions.RoleCashier
	}

	hash, err := HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, AuthTokens{}, errors.NewInternalError("registration failed", err)
	}

	acc := &Account{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		Role:         role,
		Permissions:  permissions.Defaults(role),
		IsActive:     true,
		RecordStatus: "active",
	}

	rec := (&audit.Record{
		Kind:        audit.KindUserCreate,
		Description: fmt.Sprintf("User account created: %s (%s)", dto.Username, role),
		Metadata: audit.Metadata{
			"role":  string(role),
			"email": dto.Email,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.CreateAccount(acc, rec); err != nil {
		s.logger.Error("failed to register account", "error", err, "username", dto.Username)
		return nil, AuthTokens{}, err
	}

	tokens, err := s.issueTokens(acc.ID)
	if err != nil {
		return nil, AuthTokens{}, err
	}

	s.logger.Info("account registered", "user_id", acc.ID, "username", acc.Username, "role", acc.Role)
	return acc, tokens, nil
}

// Logout writes the LOGOUT ledger entry. Tokens are stateless; expiry is
// the only revocation.
func (s *Service) Logout(userID int64, username string, meta audit.RequestMeta) error {
	rec := (&audit.Record{
		UserID:      userID,
		Kind:        audit.KindLogout,
		Description: fmt.Sprintf("User logged out: %s", username),
		Metadata:    audit.Metadata{},
	}).WithRequestMeta(meta)

	if err := s.repo.CreateRecord(rec); err != nil {
		s.logger.Error("failed to record logout", "error", err, "user_id", userID)
		return err
	}

	s.logger.Info("logout recorded", "user_id", userID)
	return nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}

	acc, err := s.repo.GetByID(userID)
	if err != nil || !acc.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(userID)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// GetSessionUser loads the current identity for a request. Lookups go to
// storage every time so permission edits apply immediately.
func (s *Service) GetSessionUser(userID int64) (*SessionUser, error) {
	acc, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, ErrUserInactive
	}
	return acc.Session(), nil
}

func (s *Service) issueTokens(userID int64) (AuthTokens, error) {
	id := strconv.FormatInt(userID, 10)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(id)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(id)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
