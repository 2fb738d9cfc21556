package order

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abukstech/folocom/internal/common/server"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler 订单的 HTTP 入口。
type Handler struct {
	svc *Service
}

func NewHandler(db *gorm.DB, parts PartFinder) *Handler {
	return &Handler{svc: NewService(NewRepo(db), parts)}
}

// RegisterRoutes 挂载 /orders 路由；全量列表与状态流转仅 ADMIN。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	adminOnly := server.RequireRoles("ADMIN")
	r.HandleFunc("/orders", h.create).Methods(http.MethodPost)
	r.Handle("/orders", adminOnly(http.HandlerFunc(h.list))).Methods(http.MethodGet)
	r.HandleFunc("/orders/my-orders", h.listMine).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.get).Methods(http.MethodGet)
	r.Handle("/orders/{id}/status", adminOnly(http.HandlerFunc(h.updateStatus))).Methods(http.MethodPatch)
	r.HandleFunc("/orders/{id}/cancel", h.cancel).Methods(http.MethodPost)
}

type createOrderRequest struct {
	Items []struct {
		PartID   string `json:"partId"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	items := make([]ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ItemInput{PartID: it.PartID, Quantity: it.Quantity})
	}

	o, err := h.svc.Create(r.Context(), ai.Subject, items)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusCreated, o)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := server.ParsePage(r)
	status := Status(r.URL.Query().Get("status"))

	orders, total, err := h.svc.List(r.Context(), "", status, (page-1)*limit, limit)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteList(w, orders, server.NewMeta(total, page, limit))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}
	page, limit := server.ParsePage(r)

	orders, total, err := h.svc.List(r.Context(), ai.Subject, "", (page-1)*limit, limit)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteList(w, orders, server.NewMeta(total, page, limit))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	o, err := h.svc.Get(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai))
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Status == "" {
		server.WriteError(w, http.StatusBadRequest, "status required")
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), mux.Vars(r)["id"], Status(req.Status), time.Now())
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, o)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	o, err := h.svc.Cancel(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai), time.Now())
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, o)
}

func roleOf(ai server.AuthInfo) user.Role {
	if len(ai.Roles) == 0 {
		return ""
	}
	return user.Role(ai.Roles[0])
}
