package part

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Abukstech/folocom/internal/asset"
	"github.com/Abukstech/folocom/internal/common/logger"
	"github.com/Abukstech/folocom/internal/common/server"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler 配件商品的 HTTP 入口。
type Handler struct {
	svc *Service
}

func NewHandler(db *gorm.DB, categories CategoryChecker, assets asset.Store, log logger.Logger) *Handler {
	return &Handler{svc: NewService(NewRepo(db), categories, assets, log)}
}

// RegisterRoutes 挂载 /parts 路由。发布/修改/删除仅 SELLER 与 ADMIN。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	sellerOnly := server.RequireRoles("SELLER", "ADMIN")
	r.HandleFunc("/parts", h.list).Methods(http.MethodGet)
	r.Handle("/parts", sellerOnly(http.HandlerFunc(h.create))).Methods(http.MethodPost)
	r.Handle("/parts/my-parts", sellerOnly(http.HandlerFunc(h.listMine))).Methods(http.MethodGet)
	r.HandleFunc("/parts/{id}", h.get).Methods(http.MethodGet)
	r.Handle("/parts/{id}", sellerOnly(http.HandlerFunc(h.update))).Methods(http.MethodPatch)
	r.Handle("/parts/{id}", sellerOnly(http.HandlerFunc(h.remove))).Methods(http.MethodDelete)
}

type partView struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"sellerId"`
	CategoryID  string    `json:"categoryId"`
	Name        string    `json:"name"`
	CarMake     string    `json:"carMake"`
	CarModel    string    `json:"carModel"`
	CarYear     int       `json:"carYear"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toView(p *Part) partView {
	return partView{
		ID:          p.ID,
		SellerID:    p.SellerID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		CarMake:     p.CarMake,
		CarModel:    p.CarModel,
		CarYear:     p.CarYear,
		Condition:   p.Condition,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toViews(parts []Part) []partView {
	out := make([]partView, 0, len(parts))
	for i := range parts {
		out = append(out, toView(&parts[i]))
	}
	return out
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := server.ParsePage(r)
	q := r.URL.Query()

	f := SearchFilter{
		Search:     q.Get("search"),
		CarMake:    q.Get("carMake"),
		CarModel:   q.Get("carModel"),
		Condition:  Condition(q.Get("condition")),
		CategoryID: q.Get("categoryId"),
		Offset:     (page - 1) * limit,
		Limit:      limit,
	}
	if year, err := strconv.Atoi(q.Get("carYear")); err == nil {
		f.CarYear = year
	}

	parts, total, err := h.svc.List(r.Context(), f)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteList(w, toViews(parts), server.NewMeta(total, page, limit))
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}
	page, limit := server.ParsePage(r)

	parts, total, err := h.svc.ListMine(r.Context(), ai.Subject, (page-1)*limit, limit)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteList(w, toViews(parts), server.NewMeta(total, page, limit))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(p))
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
		CategoryID:  r.FormValue("categoryId"),
		Name:        r.FormValue("name"),
		CarMake:     r.FormValue("carMake"),
		CarModel:    r.FormValue("carModel"),
		Condition:   Condition(r.FormValue("condition")),
		Description: r.FormValue("description"),
	}
	if year, err := strconv.Atoi(r.FormValue("carYear")); err == nil {
		in.CarYear = year
	}
	if price, err := strconv.ParseFloat(r.FormValue("price"), 64); err == nil {
		in.Price = price
	}
	if qty, err := strconv.Atoi(r.FormValue("quantity")); err == nil {
		in.Quantity = qty
	}

	p, err := h.svc.Create(r.Context(), ai.Subject, in, image)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusCreated, toView(p))
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
	if server.HasFormValue(r, "categoryId") {
		v := r.FormValue("categoryId")
		in.CategoryID = &v
	}
	if server.HasFormValue(r, "name") {
		v := r.FormValue("name")
		in.Name = &v
	}
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
		v := Condition(r.FormValue("condition"))
		in.Condition = &v
	}
	if server.HasFormValue(r, "description") {
		v := r.FormValue("description")
		in.Description = &v
	}
	if server.HasFormValue(r, "price") {
		price, err := strconv.ParseFloat(r.FormValue("price"), 64)
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "price must be a number")
			return
		}
		in.Price = &price
	}
	if server.HasFormValue(r, "quantity") {
		qty, err := strconv.Atoi(r.FormValue("quantity"))
		if err != nil {
			server.WriteError(w, http.StatusBadRequest, "quantity must be a number")
			return
		}
		in.Quantity = &qty
	}

	p, err := h.svc.Update(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai), in, image)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(p))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	p, err := h.svc.Remove(r.Context(), mux.Vars(r)["id"], ai.Subject, roleOf(ai))
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteData(w, http.StatusOK, toView(p))
}

func roleOf(ai server.AuthInfo) user.Role {
	if len(ai.Roles) == 0 {
		return ""
	}
	return user.Role(ai.Roles[0])
}
