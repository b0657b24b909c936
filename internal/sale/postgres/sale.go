package postgres

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/product"
	"github.com/frahmantamala/storefront-pos/internal/sale"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleRepository implements sale.Repository using GORM transactions.
type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) sale.Repository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) RunInTx(fn func(tx sale.Tx) error) error {
	return r.db.Transaction(func(gtx *gorm.DB) error {
		return fn(&saleTx{db: gtx})
	})
}

type saleTx struct {
	db *gorm.DB
}

// GetProductForUpdate reads a product under FOR UPDATE so two sales of
// the same product serialize on the row. SQLite has no row locks; its
// writer lock gives the same guarantee there.
func (t *saleTx) GetProductForUpdate(id int64) (*product.Product, error) {
	query := t.db
	if t.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var p product.Product
	err := query.Where("id = ? AND record_status = ?", id, product.RecordStatusActive).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (t *saleTx) SaveProduct(p *product.Product) error {
	p.UpdatedAt = time.Now()
	return t.db.Save(p).Error
}

func (t *saleTx) CreateRecord(rec *audit.Record) error {
	return t.db.Create(rec).Error
}
