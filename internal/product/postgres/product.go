package postgres

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository implements product.Repository using GORM. Every
// mutation writes its ledger record in the same transaction, so a failed
// record insert rolls the mutation back.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) product.Repository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *product.Product, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		rec.ProductID = &p.ID
		return tx.Create(rec).Error
	})
}

func (r *ProductRepository) GetByID(id int64) (*product.Product, error) {
	var p product.Product
	err := r.db.Where("id = ? AND record_status = ?", id, product.RecordStatusActive).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) GetBySKU(sku string) (*product.Product, error) {
	var p product.Product
	err := r.db.Where("sku = ? AND record_status = ?", sku, product.RecordStatusActive).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(filter product.ListFilter) ([]*product.Product, int64, error) {
	query := r.db.Model(&product.Product{}).Where("record_status = ?", product.RecordStatusActive)

	if !filter.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ? OR sku LIKE ?", pattern, pattern, pattern)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*product.Product
	err := query.
		Order(filter.SortBy + " " + filter.SortOrder).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepository) LowStock() ([]*product.Product, error) {
	var products []*product.Product
	err := r.db.
		Where("record_status = ? AND stock_quantity <= min_stock_level", product.RecordStatusActive).
		Order("stock_quantity ASC").
		Find(&products).Error
	return products, err
}

func (r *ProductRepository) Update(p *product.Product, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		p.UpdatedAt = time.Now()
		if err := tx.Save(p).Error; err != nil {
			return err
		}
		if rec.ProductID == nil {
			rec.ProductID = &p.ID
		}
		return tx.Create(rec).Error
	})
}

// UpdateStock runs the read-modify-write under FOR UPDATE so a sale
// holding the row lock commits before the read here, never between the
// read and the write. SQLite has no row locks; its writer lock gives the
// same guarantee there.
func (r *ProductRepository) UpdateStock(id int64, apply func(p *product.Product) *audit.Record) (*product.Product, error) {
	var updated *product.Product
	err := r.db.Transaction(func(tx *gorm.DB) error {
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var p product.Product
		if err := query.Where("id = ? AND record_status = ?", id, product.RecordStatusActive).First(&p).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.ErrProductNotFound
			}
			return err
		}

		rec := apply(&p)
		p.UpdatedAt = time.Now()
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		if rec.ProductID == nil {
			rec.ProductID = &p.ID
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		updated = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ProductRepository) SoftDelete(p *product.Product, rec *audit.Record) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&product.Product{}).
			Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"record_status": product.RecordStatusDeleted,
				"updated_at":    time.Now(),
			}).Error
		if err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}
