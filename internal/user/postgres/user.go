package postgres

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM. Mutations write
// their ledger record in the same transaction.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if rec.Metadata == nil {
			rec.Metadata = audit.Metadata{}
		}
		rec.Metadata["createdUserId"] = u.ID
		return tx.Create(rec).Error
	})
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	err := r.db.Where("id = ? AND record_status = ?", id, user.RecordStatusActive).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var u user.User
	err := r.db.Where("username = ? AND record_status = ?", username, user.RecordStatusActive).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	err := r.db.Where("email = ? AND record_status = ?", email, user.RecordStatusActive).First(&u).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(filter user.ListFilter) ([]*user.User, int64, error) {
	query := r.db.Model(&user.User{}).Where("record_status = ?", user.RecordStatusActive)

	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*user.User
	err := query.
		Order(filter.SortBy + " " + filter.SortOrder).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Update(u *user.User, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		u.UpdatedAt = time.Now()
		if err := tx.Save(u).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

func (r *UserRepository) SoftDelete(u *user.User, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&user.User{}).
			Where("id = ?", u.ID).
			Updates(map[string]interface{}{
				"record_status": user.RecordStatusDeleted,
				"is_active":     false,
				"updated_at":    time.Now(),
			}).Error
		if err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}
