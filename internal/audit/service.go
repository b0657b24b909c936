package audit

import (
	"log/slog"
	"math"
	"time"

	errors "github.com/frahmantamala/storefront-pos/internal"
)

// Repository is the read side of the ledger. Writes happen inside the
// owning feature's store transaction, never through this interface.
type Repository interface {
	GetByID(id int64) (*Record, error)
	List(filter ListFilter) ([]*Record, int64, error)
}

// ReportsRepository serves the aggregate queries behind the stats and
// report endpoints.
type ReportsRepository interface {
	StatsSummary(start, end *time.Time) (*StatsSummary, error)
	SalesTotals(start, end time.Time) (*SalesTotals, error)
	TopProducts(start, end time.Time, limit int) ([]TopProduct, error)
	DailySalesBreakdown(start, end time.Time) ([]DailySales, error)
}

type Service struct {
	repo    Repository
	reports ReportsRepository
	logger  *slog.Logger
}

func NewService(repo Repository, reports ReportsRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		reports: reports,
		logger:  logger,
	}
}

func (s *Service) GetByID(id int64) (*Record, error) {
	rec, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get transaction", "error", err, "transaction_id", id)
		if err == errors.ErrTransactionNotFound {
			return nil, err
		}
		return nil, errors.NewInternalError("failed to get transaction", err)
	}
	return rec, nil
}

func (s *Service) List(filter ListFilter) (*ListResult, error) {
	filter.Normalize()

	records, total, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list transactions", "error", err)
		return nil, err
	}

	return &ListResult{
		Transactions: records,
		Total:        total,
		TotalPages:   int(math.Ceil(float64(total) / float64(filter.Limit))),
		CurrentPage:  filter.Page,
	}, nil
}

// Kinds returns the closed enumeration of ledger entry types.
func (s *Service) Kinds() []Kind {
	return AllKinds
}

func (s *Service) StatsSummary(start, end *time.Time) (*StatsSummary, error) {
	summary, err := s.reports.StatsSummary(start, end)
	if err != nil {
		s.logger.Error("failed to build transaction stats", "error", err)
		return nil, err
	}
	return summary, nil
}

// DailyReport aggregates all committed sales for one calendar day.
func (s *Service) DailyReport(day time.Time) (*DailySalesReport, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	totals, err := s.reports.SalesTotals(start, end)
	if err != nil {
		s.logger.Error("failed to build daily sales totals", "error", err, "date", start)
		return nil, err
	}

	top, err := s.reports.TopProducts(start, end, 10)
	if err != nil {
		s.logger.Error("failed to build top products", "error", err, "date", start)
		return nil, err
	}

	return &DailySalesReport{
		Date:        start.Format("2006-01-02"),
		Summary:     *totals,
		TopProducts: top,
	}, nil
}

func (s *Service) PeriodReport(start, end time.Time) (*PeriodSalesReport, error) {
	totals, err := s.reports.SalesTotals(start, end)
	if err != nil {
		s.logger.Error("failed to build period sales totals", "error", err)
		return nil, err
	}

	daily, err := s.reports.DailySalesBreakdown(start, end)
	if err != nil {
		s.logger.Error("failed to build daily breakdown", "error", err)
		return nil, err
	}

	report := &PeriodSalesReport{
		Summary:        *totals,
		DailyBreakdown: daily,
	}
	report.Period.StartDate = start.Format("2006-01-02")
	report.Period.EndDate = end.Format("2006-01-02")
	return report, nil
}
