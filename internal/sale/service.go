package sale

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/core/events"
	"github.com/frahmantamala/storefront-pos/internal/product"
	"github.com/shopspring/decimal"
)

// Tx is the unit of work a sale runs in. Product reads take row locks so
// concurrent sales of the same product serialize instead of both passing
// the stock check.
type Tx interface {
	GetProductForUpdate(id int64) (*product.Product, error)
	SaveProduct(p *product.Product) error
	CreateRecord(rec *audit.Record) error
}

// Repository opens sale transactions. Everything inside fn commits or
// rolls back as one.
type Repository interface {
	RunInTx(fn func(tx Tx) error) error
}

// Ledger is the read side used for sales history.
type Ledger interface {
	List(filter audit.ListFilter) ([]*audit.Record, int64, error)
}

type Service struct {
	repo     Repository
	ledger   Ledger
	eventBus *events.EventBus
	logger   *slog.Logger
}

func NewService(repo Repository, ledger Ledger, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ProcessSale validates, prices, and commits a multi-line sale. Stock
// decrements and the per-line ledger entries land in one transaction;
// any failed line rolls back the whole sale.
func (s *Service) ProcessSale(userID int64, username string, dto ProcessSaleDTO, meta audit.RequestMeta) (*Receipt, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("sale validation failed", "error", err, "user_id", userID)
		return nil, err
	}

	paymentMethod := dto.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	saleID := fmt.Sprintf("SALE_%d_%d", time.Now().UnixMilli(), userID)
	taxRate := decimal.NewFromFloat(dto.TaxRate).Round(4)
	discount := decimal.NewFromFloat(dto.Discount).Round(2)

	var receipt *Receipt
	var lowStock []*product.Product

	err := s.repo.RunInTx(func(tx Tx) error {
		subtotal := decimal.Zero
		lines := make([]Line, 0, len(dto.Items))
		updated := make([]*product.Product, 0, len(dto.Items))

		for _, item := range dto.Items {
			p, err := tx.GetProductForUpdate(item.ProductID)
			if err != nil {
				if err == errors.ErrProductNotFound {
					return errors.NewNotFoundError(
						fmt.Sprintf("Product with ID %d not found", item.ProductID),
						errors.ErrCodeProductNotFound)
				}
				return err
			}

			if !p.IsActive {
				return errors.NewProductInactiveError(p.Name)
			}
			if p.StockQuantity < item.Quantity {
				return errors.NewInsufficientStockError(p.Name, p.StockQuantity, item.Quantity)
			}

			itemTotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			subtotal = subtotal.Add(itemTotal)

			lines = append(lines, Line{
				ProductID:   p.ID,
				ProductName: p.Name,
				Price:       p.Price,
				Quantity:    item.Quantity,
				ItemTotal:   itemTotal,
			})

			p.ApplyStockOperation(product.StockOpSubtract, item.Quantity)
			if err := tx.SaveProduct(p); err != nil {
				return err
			}
			updated = append(updated, p)
		}

		// A discount larger than the subtotal yields negative totals;
		// refund-style oversells are allowed and recorded as such.
		taxable := subtotal.Sub(discount)
		taxAmount := taxable.Mul(taxRate).Round(2)
		total := taxable.Add(taxAmount).Round(2)
		subtotal = subtotal.Round(2)

		for _, line := range lines {
			lineProductID := line.ProductID
			lineQuantity := line.Quantity
			lineAmount := line.ItemTotal.Round(2)

			rec := (&audit.Record{
				UserID: userID,
				Kind:   audit.KindSale,
				Description: fmt.Sprintf("Sale: %dx %s @ $%s",
					line.Quantity, line.ProductName, line.Price.StringFixed(2)),
				Amount:    &lineAmount,
				ProductID: &lineProductID,
				Quantity:  &lineQuantity,
				Metadata: audit.Metadata{
					"saleId":        saleID,
					"productName":   line.ProductName,
					"unitPrice":     line.Price.InexactFloat64(),
					"paymentMethod": paymentMethod,
					"cashier":       username,
					"subtotal":      subtotal.InexactFloat64(),
					"discount":      discount.InexactFloat64(),
					"taxRate":       taxRate.InexactFloat64(),
					"taxAmount":     taxAmount.InexactFloat64(),
					"total":         total.InexactFloat64(),
				},
			}).WithRequestMeta(meta)

			if err := tx.CreateRecord(rec); err != nil {
				return err
			}
		}

		for _, p := range updated {
			if p.IsLowStock() {
				lowStock = append(lowStock, p)
			}
		}

		receipt = &Receipt{
			SaleID:        saleID,
			Items:         lines,
			Subtotal:      subtotal,
			Discount:      discount,
			TaxRate:       taxRate,
			TaxAmount:     taxAmount,
			Total:         total,
			PaymentMethod: paymentMethod,
			Cashier:       username,
			Timestamp:     time.Now(),
		}
		return nil
	})
	if err != nil {
		s.logger.Error("sale failed", "error", err, "user_id", userID, "sale_id", saleID)
		return nil, err
	}

	s.logger.Info("sale processed",
		"sale_id", saleID,
		"user_id", userID,
		"items", len(receipt.Items),
		"total", receipt.Total)

	if s.eventBus != nil {
		for _, p := range lowStock {
			if err := s.eventBus.Publish(context.Background(), events.NewLowStockEvent(p.ID, p.Name, p.StockQuantity, p.MinStockLevel)); err != nil {
				s.logger.Warn("failed to publish low stock event", "error", err, "product_id", p.ID)
			}
		}
	}

	return receipt, nil
}

// History lists committed SALE ledger entries, optionally narrowed by
// date range and cashier username.
func (s *Service) History(filter audit.ListFilter) (*HistoryResult, error) {
	kind := audit.KindSale
	filter.Kind = &kind
	filter.Normalize()

	records, total, err := s.ledger.List(filter)
	if err != nil {
		s.logger.Error("failed to list sales history", "error", err)
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &HistoryResult{
		Sales:       records,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: filter.Page,
	}, nil
}

// HistoryResult is the paginated envelope of GET /sales/history.
type HistoryResult struct {
	Sales       []*audit.Record `json:"sales"`
	Total       int64           `json:"totalSales"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}
