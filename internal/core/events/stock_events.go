package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLowStock = "product.low_stock"
)

// LowStockEvent fires after a committed sale or stock adjustment leaves a
// product at or below its minimum stock level.
type LowStockEvent struct {
	BaseEvent
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockLevel int    `json:"min_stock_level"`
}

func NewLowStockEvent(productID int64, productName string, stockQuantity, minStockLevel int) *LowStockEvent {
	return &LowStockEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLowStock,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"product_id":      productID,
				"product_name":    productName,
				"stock_quantity":  stockQuantity,
				"min_stock_level": minStockLevel,
			},
		},
		ProductID:     productID,
		ProductName:   productName,
		StockQuantity: stockQuantity,
		MinStockLevel: minStockLevel,
	}
}
