package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abukstech/folocom/internal/common/apperr"
	"github.com/Abukstech/folocom/internal/common/auth"
	"github.com/Abukstech/folocom/internal/common/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service 封装账号注册/登录/资料查询（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo    *Repo
	authCfg config.AuthConfig
}

func NewService(repo *Repo, authCfg config.AuthConfig) *Service {
	return &Service{repo: repo, authCfg: authCfg}
}

// SignupInput 注册入参。
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     Role
}

// AuthResult 注册/登录的返回：access token + 用户信息。
type AuthResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *User
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Invalid("email must be an email")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Invalid("password must be longer than or equal to 8 characters")
	}
	role := in.Role
	if role == "" {
		role = RoleBuyer
	}
	if !ValidRole(role) {
		return nil, apperr.Invalidf("invalid role: %s", role)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("User with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(in.Password, salt)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return s.issueToken(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, err
	}
	if !VerifyPassword(password, u.PasswordSalt, u.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	return s.issueToken(u)
}

// Profile 返回用户资料；不存在时返回 NotFound。
func (s *Service) Profile(ctx context.Context, id string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	u, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) issueToken(u *User) (*AuthResult, error) {
	ttl := time.Duration(s.authCfg.TTLHours) * time.Hour
	token, exp, err := auth.GenerateAccessToken(s.authCfg, u.ID, []string{string(u.Role)}, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{AccessToken: token, ExpiresAt: exp, User: u}, nil
}
