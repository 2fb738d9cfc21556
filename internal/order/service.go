package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Abukstech/folocom/internal/common/apperr"
	"github.com/Abukstech/folocom/internal/part"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartFinder 查询配件（由 part.Repo 实现），下单时用于价格快照与库存校验。
type PartFinder interface {
	FindByID(ctx context.Context, id string) (*part.Part, error)
}

// Service 封装订单领域的核心用例（不依赖 HTTP），便于复用和测试。
type Service struct {
	repo  *Repo
	parts PartFinder
}

func NewService(repo *Repo, parts PartFinder) *Service {
	return &Service{repo: repo, parts: parts}
}

// ItemInput 下单的订单行入参。
type ItemInput struct {
	PartID   string
	Quantity int
}

func (s *Service) Create(ctx context.Context, userID string, items []ItemInput) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Invalid("user id required")
	}
	if len(items) == 0 {
		return nil, apperr.Invalid("order must contain at least one item")
	}

	o := &Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Status: StatusPending,
	}

	for _, in := range items {
		if in.Quantity <= 0 {
			return nil, apperr.Invalid("quantity must be > 0")
		}
		p, err := s.parts.FindByID(ctx, strings.TrimSpace(in.PartID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Invalidf("Part not found: %s", in.PartID)
			}
			return nil, err
		}
		if p.Quantity < in.Quantity {
			return nil, apperr.Invalidf("insufficient stock for part %s", p.ID)
		}
		// 价格在下单时快照，后续改价不影响已下订单
		o.Items = append(o.Items, OrderItem{
			ID:       uuid.NewString(),
			OrderID:  o.ID,
			PartID:   p.ID,
			Quantity: in.Quantity,
			Price:    p.Price,
		})
		o.TotalAmount += p.Price * float64(in.Quantity)
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id, callerID string, callerRole user.Role) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	o, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != callerID && !callerRole.IsStaff() {
		return nil, apperr.Forbidden("You are not authorized to view this order")
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, userID string, status Status, offset, limit int) ([]Order, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, userID, status, offset, limit)
}

// UpdateStatus 按状态机规则流转（管理端操作）。
func (s *Service) UpdateStatus(ctx context.Context, id string, to Status, now time.Time) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	o, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ApplyTransition(o, to, now); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalid, "invalid status transition", err)
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel 买家/运营取消订单；同样走状态机（已发货后不可取消）。
func (s *Service) Cancel(ctx context.Context, id, callerID string, callerRole user.Role, now time.Time) (*Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	o, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != callerID && !callerRole.IsStaff() {
		return nil, apperr.Forbidden("You are not authorized to cancel this order")
	}
	if err := ApplyTransition(o, StatusCancelled, now); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalid, "order can no longer be cancelled", err)
	}
	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) findExisting(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}
	return o, nil
}
