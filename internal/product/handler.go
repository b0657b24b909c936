package product

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/auth"
	"github.com/frahmantamala/storefront-pos/internal/transport"
	"github.com/frahmantamala/storefront-pos/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(filter ListFilter) (*ListResult, error)
	GetByID(id int64) (*Product, error)
	LowStock() ([]*Product, error)
	Create(userID int64, username string, dto CreateProductDTO, meta audit.RequestMeta) (*Product, error)
	Update(userID int64, username string, id int64, dto UpdateProductDTO, meta audit.RequestMeta) (*Product, error)
	UpdateStock(userID int64, username string, id int64, dto UpdateStockDTO, meta audit.RequestMeta) (*Product, error)
	Delete(userID int64, username string, id int64, meta audit.RequestMeta) error
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

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	q := r.URL.Query()

	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	filter.IncludeInactive = q.Get("includeInactive") == "true"
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
	filter.SortBy = q.Get("sortBy")
	filter.SortOrder = q.Get("sortOrder")

	result, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("ListProducts: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetLowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.LowStock()
	if err != nil {
		h.Logger.Error("GetLowStockProducts: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	p, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetProduct: service error", "error", err, "product_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("CreateProduct: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateProduct: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Create(user.ID, user.Username, dto, audit.MetaFromRequest(r))
	if err != nil {
		h.Logger.Error("CreateProduct: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateProduct: product created",
		"product_id", p.ID,
		"name", p.Name,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Product created successfully",
		"product": p,
	})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("UpdateProduct: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var dto UpdateProductDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateProduct: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Update(user.ID, user.Username, id, dto, audit.MetaFromRequest(r))
	if err != nil {
		h.Logger.Error("UpdateProduct: service error", "error", err, "product_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product updated successfully",
		"product": p,
	})
}

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("UpdateStock: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var dto UpdateStockDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateStock: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.UpdateStock(user.ID, user.Username, id, dto, audit.MetaFromRequest(r))
	if err != nil {
		h.Logger.Error("UpdateStock: service error", "error", err, "product_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Stock updated successfully",
		"product": p,
	})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("DeleteProduct: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(user.ID, user.Username, id, audit.MetaFromRequest(r)); err != nil {
		h.Logger.Error("DeleteProduct: service error", "error", err, "product_id", id, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteProduct: product deleted", "product_id", id, "user_id", user.ID)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *Handler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid product ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}
