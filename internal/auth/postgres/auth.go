package postgres

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/auth"
	"gorm.io/gorm"
)

// Repository implements auth.RepositoryAPI over the users table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByLogin(login string) (*auth.Account, error) {
	var acc auth.Account
	err := r.db.
		Where("(username = ? OR email = ?) AND record_status = ?", login, login, "active").
		First(&acc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (r *Repository) GetByID(id int64) (*auth.Account, error) {
	var acc auth.Account
	err := r.db.Where("id = ? AND record_status = ?", id, "active").First(&acc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// CreateAccount registers an account and writes its USER_CREATE ledger
// entry, attributed to the account itself, in one transaction.
func (r *Repository) CreateAccount(acc *auth.Account, rec *audit.Record) error {
	var existing auth.Account
	err := r.db.
		Where("(username = ? OR email = ?) AND record_status = ?", acc.Username, acc.Email, "active").
		First(&existing).Error
	if err == nil {
		return errors.NewConflictError("User already exists with this username or email", errors.ErrCodeDuplicateUsername)
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(acc).Error; err != nil {
			return err
		}
		rec.UserID = acc.ID
		return tx.Create(rec).Error
	})
}

// RecordLogin stamps last_login and writes the LOGIN ledger entry in one
// transaction.
func (r *Repository) RecordLogin(userID int64, at time.Time, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&auth.Account{}).
			Where("id = ?", userID).
			Update("last_login", at).Error
		if err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

func (r *Repository) CreateRecord(rec *audit.Record) error {
	return r.db.Create(rec).Error
}
