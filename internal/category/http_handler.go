package category

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Abukstech/folocom/internal/common/server"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler 分类 CRUD 的 HTTP 入口。简单 CRUD，不单独抽 service 层。
type Handler struct {
	repo *Repo
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{repo: NewRepo(db)}
}

// RegisterRoutes 挂载 /categories 路由；写操作仅 ADMIN。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	adminOnly := server.RequireRoles("ADMIN")
	r.HandleFunc("/categories", h.list).Methods(http.MethodGet)
	r.HandleFunc("/categories/{id}", h.get).Methods(http.MethodGet)
	r.Handle("/categories", adminOnly(http.HandlerFunc(h.create))).Methods(http.MethodPost)
	r.Handle("/categories/{id}", adminOnly(http.HandlerFunc(h.update))).Methods(http.MethodPatch)
	r.Handle("/categories/{id}", adminOnly(http.HandlerFunc(h.remove))).Methods(http.MethodDelete)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.WriteData(w, http.StatusOK, categories)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.WriteData(w, http.StatusOK, c)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		server.WriteError(w, http.StatusBadRequest, "name required")
		return
	}

	c := &Category{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.WriteData(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		c.Description = desc
	}

	if err := h.repo.Update(r.Context(), c); err != nil {
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.WriteData(w, http.StatusOK, c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.repo.FindByID(r.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			server.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		server.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	server.WriteData(w, http.StatusOK, map[string]string{"id": id})
}
