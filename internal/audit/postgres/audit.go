package postgres

import (
	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"gorm.io/gorm"
)

// AuditRepository reads the transactions ledger using GORM. The ledger is
// append-only: inserts happen inside the owning feature's transaction, so
// this repository exposes no write methods.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) GetByID(id int64) (*audit.Record, error) {
	var rec audit.Record
	err := r.db.Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}

	if err := r.attachDisplayInfo([]*audit.Record{&rec}); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *AuditRepository) List(filter audit.ListFilter) ([]*audit.Record, int64, error) {
	query := r.db.Model(&audit.Record{})

	if filter.Kind != nil {
		query = query.Where("transaction_type = ?", *filter.Kind)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Username != nil {
		query = query.Where(
			"user_id IN (?)",
			r.db.Table("users").Select("id").Where("username LIKE ?", "%"+*filter.Username+"%"),
		)
	}
	if filter.StartDate != nil {
		query = query.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("created_at <= ?", *filter.EndDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []*audit.Record
	err := query.
		Order(filter.SortBy + " " + filter.SortOrder).
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachDisplayInfo(records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// attachDisplayInfo batch-loads the actor and product summaries referenced
// by the given records. Deleted rows still resolve so old ledger entries
// stay readable.
func (r *AuditRepository) attachDisplayInfo(records []*audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	userIDs := make([]int64, 0, len(records))
	productIDs := make([]int64, 0, len(records))
	seenUsers := make(map[int64]bool)
	seenProducts := make(map[int64]bool)

	for _, rec := range records {
		if !seenUsers[rec.UserID] {
			seenUsers[rec.UserID] = true
			userIDs = append(userIDs, rec.UserID)
		}
		if rec.ProductID != nil && !seenProducts[*rec.ProductID] {
			seenProducts[*rec.ProductID] = true
			productIDs = append(productIDs, *rec.ProductID)
		}
	}

	var actors []audit.ActorInfo
	if err := r.db.Table("users").
		Select("id, username, role").
		Where("id IN ?", userIDs).
		Find(&actors).Error; err != nil {
		return err
	}
	actorsByID := make(map[int64]*audit.ActorInfo, len(actors))
	for i := range actors {
		actorsByID[actors[i].ID] = &actors[i]
	}

	productsByID := make(map[int64]*audit.ProductInfo)
	if len(productIDs) > 0 {
		var products []audit.ProductInfo
		if err := r.db.Table("products").
			Select("id, name, price, sku").
			Where("id IN ?", productIDs).
			Find(&products).Error; err != nil {
			return err
		}
		for i := range products {
			productsByID[products[i].ID] = &products[i]
		}
	}

	for _, rec := range records {
		rec.User = actorsByID[rec.UserID]
		if rec.ProductID != nil {
			rec.Product = productsByID[*rec.ProductID]
		}
	}
	return nil
}
