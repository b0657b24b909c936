package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

// ListFilter narrows and pages the ledger listing endpoints.
type ListFilter struct {
	Kind      *Kind
	UserID    *int64
	ProductID *int64
	Username  *string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize applies the listing defaults used by every retrieval endpoint.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	switch f.SortBy {
	case "created_at", "transaction_type", "user_id", "product_id", "amount":
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

// ListResult is the paginated envelope returned by the listing endpoints.
type ListResult struct {
	Transactions []*Record `json:"transactions"`
	Total        int64     `json:"totalTransactions"`
	TotalPages   int       `json:"totalPages"`
	CurrentPage  int       `json:"currentPage"`
}

// KindCount is one row of the by-type stats breakdown.
type KindCount struct {
	Kind  Kind  `json:"transactionType" db:"transaction_type"`
	Count int64 `json:"count" db:"count"`
}

// DailyCount is one day's entry volume.
type DailyCount struct {
	Date  string `json:"date" db:"date"`
	Count int64  `json:"count" db:"count"`
}

// ActiveUser is one row of the most-active-users breakdown.
type ActiveUser struct {
	UserID           int64  `json:"userId" db:"user_id"`
	Username         string `json:"username" db:"username"`
	Role             string `json:"role" db:"role"`
	TransactionCount int64  `json:"transactionCount" db:"transaction_count"`
}

// StatsSummary aggregates ledger activity for the stats endpoint.
type StatsSummary struct {
	TransactionsByType []KindCount  `json:"transactionsByType"`
	DailyTransactions  []DailyCount `json:"dailyTransactions"`
	ActiveUsers        []ActiveUser `json:"activeUsers"`
}

// SalesTotals aggregates SALE ledger rows over a window.
type SalesTotals struct {
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalQuantity     int64           `json:"totalQuantity"`
	TotalTransactions int64           `json:"totalTransactions"`
}

// TopProduct is one row of a daily report's best-seller breakdown.
type TopProduct struct {
	ProductID     int64           `json:"productId" db:"product_id"`
	ProductName   string          `json:"productName" db:"product_name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	TotalQuantity int64           `json:"totalQuantity" db:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount" db:"total_amount"`
}

// DailySalesReport is the response of GET /sales/reports/daily.
type DailySalesReport struct {
	Date        string       `json:"date"`
	Summary     SalesTotals  `json:"summary"`
	TopProducts []TopProduct `json:"topProducts"`
}

// DailySales is one day's sales totals inside a period report.
type DailySales struct {
	Date              string          `json:"date" db:"date"`
	TotalSales        decimal.Decimal `json:"totalSales" db:"total_sales"`
	TotalTransactions int64           `json:"totalTransactions" db:"total_transactions"`
}

// PeriodSalesReport is the response of GET /sales/reports/period.
type PeriodSalesReport struct {
	Period struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"period"`
	Summary        SalesTotals  `json:"summary"`
	DailyBreakdown []DailySales `json:"dailyBreakdown"`
}
