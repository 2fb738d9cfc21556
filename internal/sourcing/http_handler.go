package sourcing

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Abukstech/folocom/internal/asset"
	"github.com/Abukstech/folocom/internal/common/logger"
	"github.com/Abukstech/folocom/internal/common/server"
	"github.com/Abukstech/folocom/internal/part"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler 代寻配件请求的 HTTP 入口。
type Handler struct {
	svc *Service
}

func NewHandler(db *gorm.DB, assets asset.Store, log logger.Logger) *Handler {
	return &Handler{svc: NewService(NewRepo(db), assets, log)}
}

// RegisterRoutes 挂载 /assisted-sourcing 路由。
// 全量列表和运营更新仅 ADMIN；其余由 service 按归属判权。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	adminOnly := server.RequireRoles("ADMIN")
	r.HandleFunc("/assisted-sourcing", h.create).Methods(http.MethodPost)
	r.Handle("/assisted-sourcing", adminOnly(http.HandlerFunc(h.list))).Methods(http.MethodGet)
	r.HandleFunc("/assisted-sourcing/my-requests", h.listMine).Methods(http.MethodGet)
	r.HandleFunc("/assisted-sourcing/{id}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/assisted-sourcing/{id}", h.update).Methods(http.MethodPatch)
	r.Handle("/assisted-sourcing/{id}/admin", adminOnly(http.HandlerFunc(h.adminUpdate))).Methods(http.MethodPatch)
	r.HandleFunc("/assisted-sourcing/{id}/accept-quote", h.acceptQuote).Methods(http.MethodPost)
	r.HandleFunc("/assisted-sourcing/{id}/cancel", h.cancel).Methods(http.MethodPost)
	r.HandleFunc("/assisted-sourcing/{id}", h.remove).Methods(http.MethodDelete)
}

type requestView struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	CarMake           string         `json:"carMake"`
	CarModel          string         `json:"carModel"`
	CarYear           int            `json:"carYear"`
	Condition         part.Condition `json:"condition"`
	PartDescription   string         `json:"partDescription"`
	ImageURL          *string        `json:"imageUrl"`
	Status            Status         `json:"status"`
	AdminNotes        *string        `json:"adminNotes"`
	QuotedPrice       *float64       `json:"quotedPrice"`
	EstimatedDelivery *time.Time     `json:"estimatedDelivery"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func toView(r *Request) requestView {
	return requestView{
		ID:                r.ID,
		UserID:            r.UserID,
		CarMake:           r.CarMake,
		CarModel:          r.CarModel,
		CarYear:           r.CarYear,
		Condition:         r.Condition,
		PartDescription:   r.PartDescription,
		ImageURL:          r.ImageURL,
		Status:            r.Status,
		AdminNotes:        r.AdminNotes,
		QuotedPrice:       r.QuotedPrice,
		EstimatedDelivery: r.EstimatedDelivery,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func toViews(reqs []Request) []requestView {
	out := make([]requestView, 0, len(reqs))
	for i := range reqs {
		out = append(out, toView(&reqs[i]))
	}
	return out
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	image, err := server.FormImage(r, "image")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := CreateInput{
		CarMake:         r.FormValue("carMake"),
		CarModel:        r.FormValue("carModel"),
		Condition:       part.Condition(r.FormValue("condition")),
		PartDescription: r.FormValue("partDescription"),
	}
	if year, err := strconv.Atoi(r.FormValue("carYear")); err == nil {
		in.CarYear = year
	}

	req, err := h.svc.Create(r.Context(), ai.Subject, in, image)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusCreated, toView(req))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}
	page, limit := server.ParsePage(r)

	var status *Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := Status(v)
		status = &s
	}

	reqs, total, err := h.svc.List(r.Context(), roleOf(ai), status, (page-1)*limit, limit)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteList(w, toViews(reqs), server.NewMeta(total, page, limit))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}
	page, limit := server.ParsePage(r)

	reqs, total, err := h.svc.ListMine(r.Context(), ai.Subject, (page-1)*limit, limit)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteList(w, toViews(reqs), server.NewMeta(total, page, limit))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	req, err := h.svc.Get(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai))
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(req))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	image, err := server.FormImage(r, "image")
	if err != nil {
		server.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in UpdateInput
	if server.HasFormValue(r, "carMake") {
		v := r.FormValue("carMake")
		in.CarMake = &v
	}
	if server.HasFormValue(r, "carModel") {
		v := r.FormValue("carModel")
		in.CarModel = &v
	}
	if server.HasFormValue(r, "carYear") {
		year, err := strconv.Atoi(r.FormValue("carYear"))
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "carYear must be a number")
			return
		}
		in.CarYear = &year
	}
	if server.HasFormValue(r, "condition") {
		v := part.Condition(r.FormValue("condition"))
		in.Condition = &v
	}
	if server.HasFormValue(r, "partDescription") {
		v := r.FormValue("partDescription")
		in.PartDescription = &v
	}

	req, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], ai.Subject, in, image)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(req))
}

type adminUpdateRequest struct {
	Status            *string  `json:"status"`
	AdminNotes        *string  `json:"adminNotes"`
	QuotedPrice       *float64 `json:"quotedPrice"`
	EstimatedDelivery *string  `json:"estimatedDelivery"`
}

func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	var body adminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	in := AdminUpdateInput{
		AdminNotes:        body.AdminNotes,
		QuotedPrice:       body.QuotedPrice,
		EstimatedDelivery: body.EstimatedDelivery,
	}
	if body.Status != nil {
		s := Status(*body.Status)
		in.Status = &s
	}

	req, err := h.svc.AdminUpdate(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(req))
}

func (h *Handler) acceptQuote(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	req, err := h.svc.AcceptQuote(r.Context(), mux.Vars(r)["id"], ai.Subject)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(req))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	req, err := h.svc.Cancel(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai))
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(req))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	req, err := h.svc.Remove(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai))
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(req))
}

func roleOf(ai server.AuthInfo) user.Role {
	if len(ai.Roles) == 0 {
		return ""
	}
	return user.Role(ai.Roles[0])
}
