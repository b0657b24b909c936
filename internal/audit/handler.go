package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/storefront-pos/internal/transport"
	"github.com/frahmantamala/storefront-pos/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	GetByID(id int64) (*Record, error)
	List(filter ListFilter) (*ListResult, error)
	Kinds() []Kind
	StatsSummary(start, end *time.Time) (*StatsSummary, error)
	DailyReport(day time.Time) (*DailySalesReport, error)
	PeriodReport(start, end time.Time) (*PeriodSalesReport, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := filterFromQuery(r)

	result, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("ListTransactions: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetTransaction: invalid transaction ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid transaction ID")
		return
	}

	record, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetTransaction: service error", "error", err, "transaction_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

// GetTransactionTypes lists the transaction type enumeration so clients
// can build filter dropdowns without hardcoding it.
func (h *Handler) GetTransactionTypes(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"types": h.Service.Kinds(),
	})
}

func (h *Handler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	userIDStr := chi.URLParam(r, "userId")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetUserTransactions: invalid user ID", "id", userIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	filter := filterFromQuery(r)
	filter.UserID = &userID

	result, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("GetUserTransactions: service error", "error", err, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetProductTransactions(w http.ResponseWriter, r *http.Request) {
	productIDStr := chi.URLParam(r, "productId")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetProductTransactions: invalid product ID", "id", productIDStr)
		h.WriteError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	filter := filterFromQuery(r)
	filter.ProductID = &productID

	result, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("GetProductTransactions: service error", "error", err, "product_id", productID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetStatsSummary(w http.ResponseWriter, r *http.Request) {
	var start, end *time.Time
	if t, ok := parseDateParam(r, "startDate"); ok {
		start = &t
	}
	if t, ok := parseDateParam(r, "endDate"); ok {
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		end = &endOfDay
	}

	summary, err := h.Service.StatsSummary(start, end)
	if err != nil {
		h.Logger.Error("GetStatsSummary: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if t, ok := parseDateParam(r, "date"); ok {
		day = t
	}

	report, err := h.Service.DailyReport(day)
	if err != nil {
		h.Logger.Error("GetDailyReport: service error", "error", err, "date", day)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) GetPeriodReport(w http.ResponseWriter, r *http.Request) {
	start, okStart := parseDateParam(r, "startDate")
	end, okEnd := parseDateParam(r, "endDate")
	if !okStart || !okEnd {
		h.Logger.Error("GetPeriodReport: missing date range")
		h.WriteError(w, http.StatusBadRequest, "startDate and endDate are required (YYYY-MM-DD)")
		return
	}
	if end.Before(start) {
		h.WriteError(w, http.StatusBadRequest, "endDate must not be before startDate")
		return
	}

	report, err := h.Service.PeriodReport(start, end.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		h.Logger.Error("GetPeriodReport: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, report)
}

func filterFromQuery(r *http.Request) ListFilter {
	var filter ListFilter
	q := r.URL.Query()

	if v := q.Get("type"); v != "" {
		kind := Kind(v)
		if kind.Valid() {
			filter.Kind = &kind
		}
	}
	if v := q.Get("userId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.UserID = &id
		}
	}
	if v := q.Get("productId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.ProductID = &id
		}
	}
	if v := q.Get("username"); v != "" {
		filter.Username = &v
	}
	if t, ok := parseDateParam(r, "startDate"); ok {
		filter.StartDate = &t
	}
	if t, ok := parseDateParam(r, "endDate"); ok {
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &endOfDay
	}
	if v := q.Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			filter.Page = p
		}
	}
	if v := q.Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			filter.Limit = l
		}
	}
	if v := q.Get("sortBy"); v != "" {
		filter.SortBy = v
	}
	if v := q.Get("sortOrder"); v != "" {
		filter.SortOrder = v
	}

	return filter
}

func parseDateParam(r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
