package product

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// Record status values. Deleted rows stay in the table so old ledger
// entries keep resolving; every lookup filters on active.
const (
	RecordStatusActive  = "active"
	RecordStatusDeleted = "deleted"
)

// Product is the catalog entity.
type Product struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"not null"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"column:stock_quantity;not null;default:0"`
	SKU           *string         `json:"sku,omitempty" gorm:"column:sku"`
	Category      *string         `json:"category,omitempty"`
	Supplier      *string         `json:"supplier,omitempty"`
	MinStockLevel int             `json:"min_stock_level" gorm:"column:min_stock_level;not null;default:10"`
	IsActive      bool            `json:"is_active" gorm:"column:is_active;not null;default:true"`
	RecordStatus  string          `json:"-" gorm:"column:record_status;not null;default:active"`
	CreatedAt     time.Time       `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"column:updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}

func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// Stock operations accepted by PUT /products/{id}/stock.
const (
	StockOpAdd      = "add"
	StockOpSubtract = "subtract"
	StockOpSet      = "set"
)

// ApplyStockOperation mutates the stock counter. Subtract and set clamp
// at zero rather than failing; sales enforce availability separately.
func (p *Product) ApplyStockOperation(operation string, quantity int) {
	switch operation {
	case StockOpAdd:
		p.StockQuantity += quantity
	case StockOpSubtract:
		p.StockQuantity -= quantity
		if p.StockQuantity < 0 {
			p.StockQuantity = 0
		}
	case StockOpSet:
		p.StockQuantity = quantity
		if p.StockQuantity < 0 {
			p.StockQuantity = 0
		}
	}
}

// CreateProductDTO is the request payload for POST /products.
type CreateProductDTO struct {
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
	SKU           *string `json:"sku,omitempty"`
	Category      *string `json:"category,omitempty"`
	Supplier      *string `json:"supplier,omitempty"`
	MinStockLevel *int    `json:"minStockLevel,omitempty"`
}

func (dto CreateProductDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("name", dto.Name).Required().MaxLength(255)
	validator.Field("price", dto.Price).MinFloat(0, errors.ErrCodeInvalidPrice)
	validator.Field("stockQuantity", dto.StockQuantity).MinInt(0, errors.ErrCodeInvalidQuantity)
	if dto.SKU != nil {
		validator.Field("sku", *dto.SKU).MaxLength(100)
	}
	if dto.MinStockLevel != nil {
		validator.Field("minStockLevel", *dto.MinStockLevel).MinInt(0, errors.ErrCodeInvalidQuantity)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateProductDTO is the request payload for PUT /products/{id}.
// Only fields present in the body are applied.
type UpdateProductDTO struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	StockQuantity *int     `json:"stockQuantity,omitempty"`
	SKU           *string  `json:"sku,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Supplier      *string  `json:"supplier,omitempty"`
	MinStockLevel *int     `json:"minStockLevel,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

func (dto UpdateProductDTO) Validate() error {
	validator := validation.NewValidator()

	if dto.Name != nil {
		validator.Field("name", *dto.Name).Required().MaxLength(255)
	}
	if dto.Price != nil {
		validator.Field("price", *dto.Price).MinFloat(0, errors.ErrCodeInvalidPrice)
	}
	if dto.StockQuantity != nil {
		validator.Field("stockQuantity", *dto.StockQuantity).MinInt(0, errors.ErrCodeInvalidQuantity)
	}
	if dto.SKU != nil {
		validator.Field("sku", *dto.SKU).MaxLength(100)
	}
	if dto.MinStockLevel != nil {
		validator.Field("minStockLevel", *dto.MinStockLevel).MinInt(0, errors.ErrCodeInvalidQuantity)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateStockDTO is the request payload for PUT /products/{id}/stock.
type UpdateStockDTO struct {
	Quantity  int    `json:"quantity"`
	Operation string `json:"operation"`
}

func (dto UpdateStockDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("operation", dto.Operation).
		Required().
		OneOf([]string{StockOpAdd, StockOpSubtract, StockOpSet}, errors.ErrCodeInvalidOperation)

	// A negative set is clamped to zero by ApplyStockOperation; only the
	// relative operations require a non-negative magnitude.
	if dto.Operation != StockOpSet {
		validator.Field("quantity", dto.Quantity).MinInt(0, errors.ErrCodeInvalidQuantity)
	}

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ListFilter narrows and pages the catalog listing.
type ListFilter struct {
	Search          *string
	Category        *string
	IncludeInactive bool
	Page            int
	Limit           int
	SortBy          string
	SortOrder       string
}

func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 10
	}
	switch f.SortBy {
	case "name", "price", "stock_quantity", "category", "created_at":
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

// ListResult is the paginated envelope returned by GET /products.
type ListResult struct {
	Products    []*Product `json:"products"`
	Total       int64      `json:"totalProducts"`
	TotalPages  int        `json:"totalPages"`
	CurrentPage int        `json:"currentPage"`
}
