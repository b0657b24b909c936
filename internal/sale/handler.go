package sale

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/auth"
	"github.com/frahmantamala/storefront-pos/internal/transport"
	"github.com/frahmantamala/storefront-pos/pkg/logger"
)

type ServiceAPI interface {
	ProcessSale(userID int64, username string, dto ProcessSaleDTO, meta audit.RequestMeta) (*Receipt, error)
	History(filter audit.ListFilter) (*HistoryResult, error)
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

func (h *Handler) ProcessSale(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("ProcessSale: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto ProcessSaleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("ProcessSale: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.Service.ProcessSale(user.ID, user.Username, dto, audit.MetaFromRequest(r))
	if err != nil {
		h.Logger.Error("ProcessSale: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ProcessSale: sale committed",
		"sale_id", receipt.SaleID,
		"user_id", user.ID,
		"total", receipt.Total)

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Sale processed successfully",
		"sale":    receipt,
	})
}

func (h *Handler) GetSalesHistory(w http.ResponseWriter, r *http.Request) {
	var filter audit.ListFilter
	q := r.URL.Query()

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
	if v := q.Get("startDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := q.Get("endDate"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			endOfDay := t.Add(24*time.Hour - time.Nanosecond)
			filter.EndDate = &endOfDay
		}
	}
	if v := q.Get("cashier"); v != "" {
		filter.Username = &v
	}
	filter.SortBy = q.Get("sortBy")
	filter.SortOrder = q.Get("sortOrder")

	result, err := h.Service.History(filter)
	if err != nil {
		h.Logger.Error("GetSalesHistory: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
