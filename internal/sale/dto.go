package sale

import (
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/core/common/validation"
	"github.com/shopspring/decimal"
)

// SaleItemDTO is one checkout line in a sale request.
type SaleItemDTO struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// ProcessSaleDTO is the request payload for POST /sales.
type ProcessSaleDTO struct {
	Items         []SaleItemDTO `json:"items"`
	TaxRate       float64       `json:"taxRate"`
	Discount      float64       `json:"discount"`
	PaymentMethod string        `json:"paymentMethod"`
}

func (dto ProcessSaleDTO) Validate() error {
	validator := validation.NewValidator()

	if len(dto.Items) == 0 {
		return errors.NewValidationFieldError("items", "items array is required and must contain at least one item", errors.ErrCodeValidationFailed)
	}
	for _, item := range dto.Items {
		if item.ProductID < 1 {
			return errors.NewValidationFieldError("items", "each item must have a valid product ID", errors.ErrCodeValidationFailed)
		}
		if item.Quantity < 1 {
			return errors.NewValidationFieldError("items", "each item must have a valid quantity", errors.ErrCodeInvalidQuantity)
		}
	}

	validator.Field("taxRate", dto.TaxRate).
		MinFloat(0, errors.ErrCodeValidationFailed).
		MaxFloat(1, errors.ErrCodeValidationFailed)
	validator.Field("discount", dto.Discount).MinFloat(0, errors.ErrCodeValidationFailed)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Line is one priced and totalled item of a committed sale.
type Line struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ItemTotal   decimal.Decimal `json:"itemTotal"`
}

// Receipt is the response of a committed sale. Amounts carry two decimal
// places, the tax rate four.
type Receipt struct {
	SaleID        string          `json:"saleId"`
	Items         []Line          `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	TaxRate       decimal.Decimal `json:"taxRate"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	Cashier       string          `json:"cashier"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Payment method fallback when the request omits one.
const DefaultPaymentMethod = "CASH"
