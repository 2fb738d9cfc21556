package user

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Abukstech/folocom/internal/common/config"
	"github.com/Abukstech/folocom/internal/common/server"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Handler 账号相关的 HTTP 入口。
type Handler struct {
	svc *Service
}

func NewHandler(db *gorm.DB, authCfg config.AuthConfig) *Handler {
	return &Handler{svc: NewService(NewRepo(db), authCfg)}
}

// RegisterRoutes 挂载 /auth 路由。signup/login 为公开路径（见 AuthConfig.PublicPaths）。
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/signup", h.signup).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/profile", h.profile).Methods(http.MethodGet)
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type authView struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        userView  `json:"user"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.svc.Signup(r.Context(), SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     Role(req.Role),
	})
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, toAuthView(res))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, toAuthView(res))
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	ai, ok := server.AuthFromContext(r.Context())
	if !ok {
		server.WriteError(w, http.StatusUnauthorized, "missing auth context")
		return
	}

	u, err := h.svc.Profile(r.Context(), ai.Subject)
	if err != nil {
		server.WriteAppError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, toUserView(u))
}

func toUserView(u *User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toAuthView(res *AuthResult) authView {
	return authView{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		User:        toUserView(res.User),
	}
}
