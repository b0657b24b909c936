package postgres

import (
	"time"

	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ReportsRepository runs the aggregate queries behind the stats and sales
// report endpoints. They bypass GORM on purpose: these are read-only
// rollups over the ledger and are simpler as raw SQL.
type ReportsRepository struct {
	db *sqlx.DB
}

func NewReportsRepository(db *sqlx.DB) audit.ReportsRepository {
	return &ReportsRepository{db: db}
}

func (r *ReportsRepository) StatsSummary(start, end *time.Time) (*audit.StatsSummary, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if start != nil {
		where += " AND created_at >= ?"
		args = append(args, *start)
	}
	if end != nil {
		where += " AND created_at <= ?"
		args = append(args, *end)
	}

	byType := []audit.KindCount{}
	query := r.db.Rebind(`
		SELECT transaction_type, COUNT(*) AS count
		FROM transactions ` + where + `
		GROUP BY transaction_type
		ORDER BY count DESC`)
	if err := r.db.Select(&byType, query, args...); err != nil {
		return nil, err
	}

	daily := []audit.DailyCount{}
	query = r.db.Rebind(`
		SELECT date(created_at) AS date, COUNT(*) AS count
		FROM transactions ` + where + `
		GROUP BY date(created_at)
		ORDER BY date DESC
		LIMIT 30`)
	if err := r.db.Select(&daily, query, args...); err != nil {
		return nil, err
	}

	activeUsers := []audit.ActiveUser{}
	query = r.db.Rebind(`
		SELECT t.user_id, u.username, u.role, COUNT(*) AS transaction_count
		FROM transactions t
		JOIN users u ON u.id = t.user_id ` + where + `
		GROUP BY t.user_id, u.username, u.role
		ORDER BY transaction_count DESC
		LIMIT 10`)
	if err := r.db.Select(&activeUsers, query, args...); err != nil {
		return nil, err
	}

	return &audit.StatsSummary{
		TransactionsByType: byType,
		DailyTransactions:  daily,
		ActiveUsers:        activeUsers,
	}, nil
}

func (r *ReportsRepository) SalesTotals(start, end time.Time) (*audit.SalesTotals, error) {
	var row struct {
		TotalSales        decimal.NullDecimal `db:"total_sales"`
		TotalQuantity     *int64              `db:"total_quantity"`
		TotalTransactions int64               `db:"total_transactions"`
	}
	query := r.db.Rebind(`
		SELECT
			SUM(amount)   AS total_sales,
			SUM(quantity) AS total_quantity,
			COUNT(id)     AS total_transactions
		FROM transactions
		WHERE transaction_type = ? AND created_at >= ? AND created_at <= ?`)
	if err := r.db.Get(&row, query, audit.KindSale, start, end); err != nil {
		return nil, err
	}

	totals := &audit.SalesTotals{TotalTransactions: row.TotalTransactions}
	if row.TotalSales.Valid {
		totals.TotalSales = row.TotalSales.Decimal
	}
	if row.TotalQuantity != nil {
		totals.TotalQuantity = *row.TotalQuantity
	}
	return totals, nil
}

func (r *ReportsRepository) TopProducts(start, end time.Time, limit int) ([]audit.TopProduct, error) {
	top := []audit.TopProduct{}
	query := r.db.Rebind(`
		SELECT
			t.product_id,
			p.name        AS product_name,
			p.price       AS price,
			SUM(t.quantity) AS total_quantity,
			SUM(t.amount)   AS total_amount
		FROM transactions t
		JOIN products p ON p.id = t.product_id
		WHERE t.transaction_type = ? AND t.created_at >= ? AND t.created_at <= ?
		GROUP BY t.product_id, p.name, p.price
		ORDER BY total_quantity DESC
		LIMIT ?`)
	if err := r.db.Select(&top, query, audit.KindSale, start, end, limit); err != nil {
		return nil, err
	}
	return top, nil
}

func (r *ReportsRepository) DailySalesBreakdown(start, end time.Time) ([]audit.DailySales, error) {
	daily := []audit.DailySales{}
	query := r.db.Rebind(`
		SELECT
			date(created_at) AS date,
			SUM(amount)      AS total_sales,
			COUNT(id)        AS total_transactions
		FROM transactions
		WHERE transaction_type = ? AND created_at >= ? AND created_at <= ?
		GROUP BY date(created_at)
		ORDER BY date ASC`)
	if err := r.db.Select(&daily, query, audit.KindSale, start, end); err != nil {
		return nil, err
	}
	return daily, nil
}
