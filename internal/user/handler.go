package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/storefront-pos/internal/audit"
	"github.com/frahmantamala/storefront-pos/internal/auth"
	"github.com/frahmantamala/storefront-pos/internal/core/permissions"
	"github.com/frahmantamala/storefront-pos/internal/transport"
	"github.com/frahmantamala/storefront-pos/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(filter ListFilter) (*ListResult, error)
	GetByID(id int64) (*User, error)
	Create(actorID int64, actorUsername string, dto CreateUserDTO, meta audit.RequestMeta) (*User, error)
	Update(actorID int64, actorUsername string, actorIsAdmin bool, id int64, dto UpdateUserDTO, meta audit.RequestMeta) (*User, error)
	Delete(actorID int64, actorUsername string, id int64, meta audit.RequestMeta) error
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

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	q := r.URL.Query()

	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if v := q.Get("role"); v != "" {
		role := permissions.Role(v)
		if role.Valid() {
			filter.Role = &role
		}
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
	filter.SortBy = q.Get("sortBy")
	filter.SortOrder = q.Get("sortOrder")

	result, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetUser: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("CreateUser: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateUser: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Create(actor.ID, actor.Username, dto, audit.MetaFromRequest(r))
	if err != nil {
		h.Logger.Error("CreateUser: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user created",
		"user_id", u.ID,
		"username", u.Username,
		"role", u.Role,
		"actor_id", actor.ID)

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    u,
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("UpdateUser: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var dto UpdateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateUser: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Update(actor.ID, actor.Username, actor.IsAdmin(), id, dto, audit.MetaFromRequest(r))
	if err != nil {
		h.Logger.Error("UpdateUser: service error", "error", err, "user_id", id, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    u,
	})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok || actor == nil {
		h.Logger.Error("DeleteUser: user not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(actor.ID, actor.Username, id, audit.MetaFromRequest(r)); err != nil {
		h.Logger.Error("DeleteUser: service error", "error", err, "user_id", id, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("DeleteUser: user deleted", "user_id", id, "actor_id", actor.ID)
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid user ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return 0, false
	}
	return id, true
}
