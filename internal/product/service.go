package product

import (
	"context"
	"fmt"
	"log/slog"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/core/events"
	"github.com/shopspring/decimal"
)

// Repository defines catalog data access. Mutations take the ledger record
// that documents them and must persist both in one transaction: if the
// record cannot be written, the mutation must not happen either.
type Repository interface {
	Create(p *Product, rec *audit.Record) error
	GetByID(id int64) (*Product, error)
	GetBySKU(sku string) (*Product, error)
	List(filter ListFilter) ([]*Product, int64, error)
	LowStock() ([]*Product, error)
	Update(p *Product, rec *audit.Record) error
	// UpdateStock reads the product under the same row lock sales take,
	// applies the mutation, and commits the new stock with its ledger
	// record in one transaction. A concurrent sale cannot interleave
	// between the read and the write.
	UpdateStock(id int64, apply func(p *Product) *audit.Record) (*Product, error)
	SoftDelete(p *Product, rec *audit.Record) error
}

type Service struct {
	repo     Repository
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *Service) List(filter ListFilter) (*ListResult, error) {
	filter.Normalize()

	products, total, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list products", "error", err)
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &ListResult{
		Products:    products,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: filter.Page,
	}, nil
}

func (s *Service) GetByID(id int64) (*Product, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get product", "error", err, "product_id", id)
		return nil, err
	}
	return p, nil
}

// LowStock lists products at or below their minimum stock level.
func (s *Service) LowStock() ([]*Product, error) {
	products, err := s.repo.LowStock()
	if err != nil {
		s.logger.Error("failed to list low stock products", "error", err)
		return nil, err
	}
	return products, nil
}

func (s *Service) Create(userID int64, username string, dto CreateProductDTO, meta audit.RequestMeta) (*Product, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("product validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	if dto.SKU != nil && *dto.SKU != "" {
		if existing, err := s.repo.GetBySKU(*dto.SKU); err == nil && existing != nil {
			return nil, errors.ErrDuplicateSKU
		}
	}

	minStock := 10
	if dto.MinStockLevel != nil {
		minStock = *dto.MinStockLevel
	}

	p := &Product{
		Name:          dto.Name,
		Description:   dto.Description,
		Price:         decimal.NewFromFloat(dto.Price).Round(2),
		StockQuantity: dto.StockQuantity,
		SKU:           dto.SKU,
		Category:      dto.Category,
		Supplier:      dto.Supplier,
		MinStockLevel: minStock,
		IsActive:      true,
		RecordStatus:  RecordStatusActive,
	}

	quantity := dto.StockQuantity
	rec := (&audit.Record{
		UserID:      userID,
		Kind:        audit.KindProductAdd,
		Description: fmt.Sprintf("Product added: %s", p.Name),
		Quantity:    &quantity,
		Metadata: audit.Metadata{
			"price":    dto.Price,
			"sku":      dto.SKU,
			"category": dto.Category,
			"supplier": dto.Supplier,
			"addedBy":  username,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.Create(p, rec); err != nil {
		s.logger.Error("failed to create product", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("product created",
		"product_id", p.ID,
		"name", p.Name,
		"user_id", userID)

	return p, nil
}

func (s *Service) Update(userID int64, username string, id int64, dto UpdateProductDTO, meta audit.RequestMeta) (*Product, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("product validation failed", "error", err, "product_id", id)
		return nil, err
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	oldValues := audit.Metadata{
		"name":          p.Name,
		"price":         p.Price,
		"stockQuantity": p.StockQuantity,
		"sku":           p.SKU,
		"category":      p.Category,
		"supplier":      p.Supplier,
		"minStockLevel": p.MinStockLevel,
		"isActive":      p.IsActive,
	}

	newValues := audit.Metadata{}
	if dto.Name != nil {
		p.Name = *dto.Name
		newValues["name"] = *dto.Name
	}
	if dto.Description != nil {
		p.Description = dto.Description
		newValues["description"] = *dto.Description
	}
	if dto.Price != nil {
		p.Price = decimal.NewFromFloat(*dto.Price).Round(2)
		newValues["price"] = *dto.Price
	}
	if dto.StockQuantity != nil {
		p.StockQuantity = *dto.StockQuantity
		newValues["stockQuantity"] = *dto.StockQuantity
	}
	if dto.SKU != nil && (p.SKU == nil || *dto.SKU != *p.SKU) {
		if existing, err := s.repo.GetBySKU(*dto.SKU); err == nil && existing != nil && existing.ID != p.ID {
			return nil, errors.ErrDuplicateSKU
		}
		p.SKU = dto.SKU
		newValues["sku"] = *dto.SKU
	}
	if dto.Category != nil {
		p.Category = dto.Category
		newValues["category"] = *dto.Category
	}
	if dto.Supplier != nil {
		p.Supplier = dto.Supplier
		newValues["supplier"] = *dto.Supplier
	}
	if dto.MinStockLevel != nil {
		p.MinStockLevel = *dto.MinStockLevel
		newValues["minStockLevel"] = *dto.MinStockLevel
	}
	if dto.IsActive != nil {
		p.IsActive = *dto.IsActive
		newValues["isActive"] = *dto.IsActive
	}

	rec := (&audit.Record{
		UserID:      userID,
		Kind:        audit.KindProductUpdate,
		Description: fmt.Sprintf("Product updated: %s", p.Name),
		Metadata: audit.Metadata{
			"oldValues": oldValues,
			"newValues": newValues,
			"updatedBy": username,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.Update(p, rec); err != nil {
		s.logger.Error("failed to update product", "error", err, "product_id", id)
		return nil, err
	}

	s.logger.Info("product updated", "product_id", p.ID, "user_id", userID)
	return p, nil
}

// UpdateStock applies one add/subtract/set stock operation and records it.
func (s *Service) UpdateStock(userID int64, username string, id int64, dto UpdateStockDTO, meta audit.RequestMeta) (*Product, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("stock update validation failed", "error", err, "product_id", id)
		return nil, err
	}

	var oldStock int
	p, err := s.repo.UpdateStock(id, func(p *Product) *audit.Record {
		oldStock = p.StockQuantity
		p.ApplyStockOperation(dto.Operation, dto.Quantity)

		// The recorded quantity is signed: negative when stock leaves.
		signedQty := dto.Quantity
		if dto.Operation == StockOpSubtract {
			signedQty = -dto.Quantity
		}

		return (&audit.Record{
			UserID: userID,
			Kind:   audit.KindStockUpdate,
			Description: fmt.Sprintf("Stock updated for %s: %d -> %d (%s %d)",
				p.Name, oldStock, p.StockQuantity, dto.Operation, dto.Quantity),
			ProductID: &p.ID,
			Quantity:  &signedQty,
			Metadata: audit.Metadata{
				"operation":       dto.Operation,
				"oldStock":        oldStock,
				"newStock":        p.StockQuantity,
				"quantityChanged": dto.Quantity,
				"updatedBy":       username,
			},
		}).WithRequestMeta(meta)
	})
	if err != nil {
		s.logger.Error("failed to update stock", "error", err, "product_id", id)
		return nil, err
	}

	s.logger.Info("stock updated",
		"product_id", p.ID,
		"operation", dto.Operation,
		"old_stock", oldStock,
		"new_stock", p.StockQuantity,
		"user_id", userID)

	if s.eventBus != nil && p.IsLowStock() {
		if err := s.eventBus.Publish(context.Background(), events.NewLowStockEvent(p.ID, p.Name, p.StockQuantity, p.MinStockLevel)); err != nil {
			s.logger.Warn("failed to publish low stock event", "error", err, "product_id", p.ID)
		}
	}

	return p, nil
}

func (s *Service) Delete(userID int64, username string, id int64, meta audit.RequestMeta) error {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	rec := (&audit.Record{
		UserID:      userID,
		Kind:        audit.KindProductDelete,
		Description: fmt.Sprintf("Product deleted: %s", p.Name),
		ProductID:   &p.ID,
		Metadata: audit.Metadata{
			"productName":     p.Name,
			"sku":             p.SKU,
			"stockAtDeletion": p.StockQuantity,
			"deletedBy":       username,
		},
	}).WithRequestMeta(meta)

	if err := s.repo.SoftDelete(p, rec); err != nil {
		s.logger.Error("failed to delete product", "error", err, "product_id", id)
		return err
	}

	s.logger.Info("product deleted", "product_id", p.ID, "user_id", userID)
	return nil
}
