package sourcing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Abukstech/folocom/internal/asset"
	"github.com/Abukstech/folocom/internal/common/apperr"
	"github.com/Abukstech/folocom/internal/common/logger"
	"github.com/Abukstech/folocom/internal/part"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/google/uuid"
)

// imageFolder 请求配图在托管方的子目录。
const imageFolder = "assisted-sourcing"

// minDescriptionLen 配件描述的最小长度。
const minDescriptionLen = 10

// Service 封装代寻配件请求的核心用例：状态流转、按操作授权、
// 以及与记录变更耦合的图片生命周期。不依赖 HTTP，便于复用和测试。
type Service struct {
	store  Store
	assets asset.Store
	log    logger.Logger
}

func NewService(store Store, assets asset.Store, log logger.Logger) *Service {
	return &Service{store: store, assets: assets, log: log}
}

// CreateInput 发起寻源请求的入参。
type CreateInput struct {
	CarMake         string
	CarModel        string
	CarYear         int
	Condition       part.Condition
	PartDescription string
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.CarMake) == "" || strings.TrimSpace(in.CarModel) == "" {
		return apperr.Invalid("carMake and carModel required")
	}
	if in.CarYear < 1900 {
		return apperr.Invalid("carYear must be >= 1900")
	}
	if !part.ValidCondition(in.Condition) {
		return apperr.Invalidf("invalid condition: %s", in.Condition)
	}
	if len(strings.TrimSpace(in.PartDescription)) < minDescriptionLen {
		return apperr.Invalidf("partDescription must be at least %d characters", minDescriptionLen)
	}
	return nil
}

// Create 创建请求，初始状态 PENDING。带图时先上传：上传失败整个操作
// 失败，不会落下没有配图引用的半成品记录；入库失败则回收刚上传的图。
func (s *Service) Create(ctx context.Context, requesterID string, in CreateInput, image io.Reader) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(requesterID) == "" {
		return nil, apperr.Invalid("user id required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	var imageURL *string
	var uploaded *asset.Image
	if image != nil {
		var err error
		uploaded, err = s.assets.Upload(ctx, image, imageFolder)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalid, "Failed to upload image", err)
		}
		imageURL = &uploaded.URL
	}

	r := &Request{
		ID:              uuid.NewString(),
		UserID:          requesterID,
		CarMake:         strings.TrimSpace(in.CarMake),
		CarModel:        strings.TrimSpace(in.CarModel),
		CarYear:         in.CarYear,
		Condition:       in.Condition,
		PartDescription: strings.TrimSpace(in.PartDescription),
		ImageURL:        imageURL,
		Status:          StatusPending,
	}
	if err := s.store.Insert(ctx, r); err != nil {
		if uploaded != nil {
			s.deleteAssetQuietly(ctx, uploaded.URL)
		}
		return nil, err
	}
	return r, nil
}

// List 运营侧全量列表，可按状态过滤；非运营在查询前即被拒绝。
func (s *Service) List(ctx context.Context, callerRole user.Role, status *Status, offset, limit int) ([]Request, int64, error) {
	if s == nil || s.store == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	if !CanListAll(callerRole) {
		return nil, 0, apperr.Forbidden("You are not authorized to list sourcing requests")
	}
	if status != nil && !ValidStatus(*status) {
		return nil, 0, apperr.Invalidf("invalid status: %s", *status)
	}
	return s.store.FindMany(ctx, ListFilter{Status: status, Offset: offset, Limit: limit})
}

// ListMine 发起人查看自己的请求，不带状态过滤。
func (s *Service) ListMine(ctx context.Context, requesterID string, offset, limit int) ([]Request, int64, error) {
	if s == nil || s.store == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.store.FindMany(ctx, ListFilter{UserID: requesterID, Offset: offset, Limit: limit})
}

func (s *Service) Get(ctx context.Context, id, callerID string, callerRole user.Role) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	r, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanView(callerID, callerRole, r) {
		return nil, apperr.Forbidden("You are not authorized to view this request")
	}
	return r, nil
}

// UpdateInput 发起人自助更新，patch 语义：nil 字段不修改。
type UpdateInput struct {
	CarMake         *string
	CarModel        *string
	CarYear         *int
	Condition       *part.Condition
	PartDescription *string
}

// Update 发起人自助修改。仅本人可用（运营不走这条路），且仅在
// PENDING / CANCELLED 阶段允许——进入报价流程后改车型属于偷换需求。
// 换图采用先传后删：新图上传失败时记录与旧图都保持原样。
func (s *Service) Update(ctx context.Context, id, callerID string, in UpdateInput, image io.Reader) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	r, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanSelfEdit(callerID, r) {
		return nil, apperr.Forbidden("You are not authorized to update this request")
	}
	if !Editable(r.Status) {
		return nil, apperr.Invalid("Only pending or cancelled requests can be updated")
	}

	if in.CarMake != nil {
		if strings.TrimSpace(*in.CarMake) == "" {
			return nil, apperr.Invalid("carMake must not be empty")
		}
		r.CarMake = strings.TrimSpace(*in.CarMake)
	}
	if in.CarModel != nil {
		if strings.TrimSpace(*in.CarModel) == "" {
			return nil, apperr.Invalid("carModel must not be empty")
		}
		r.CarModel = strings.TrimSpace(*in.CarModel)
	}
	if in.CarYear != nil {
		if *in.CarYear < 1900 {
			return nil, apperr.Invalid("carYear must be >= 1900")
		}
		r.CarYear = *in.CarYear
	}
	if in.Condition != nil {
		if !part.ValidCondition(*in.Condition) {
			return nil, apperr.Invalidf("invalid condition: %s", *in.Condition)
		}
		r.Condition = *in.Condition
	}
	if in.PartDescription != nil {
		if len(strings.TrimSpace(*in.PartDescription)) < minDescriptionLen {
			return nil, apperr.Invalidf("partDescription must be at least %d characters", minDescriptionLen)
		}
		r.PartDescription = strings.TrimSpace(*in.PartDescription)
	}

	if image != nil {
		uploaded, err := s.assets.Upload(ctx, image, imageFolder)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalid, "Failed to upload image", err)
		}
		if r.ImageURL != nil {
			s.deleteAssetQuietly(ctx, *r.ImageURL)
		}
		r.ImageURL = &uploaded.URL
	}

	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// AdminUpdateInput 运营侧更新：状态、备注、报价、预计到货。
// EstimatedDelivery 以字符串收取，转为日历日期。
type AdminUpdateInput struct {
	Status            *Status
	AdminNotes        *string
	QuotedPrice       *float64
	EstimatedDelivery *string
}

// AdminUpdate 运营通道。没有归属与阶段限制，状态可直接设置任意合法值，
// 即绕过自助流转表——信任边界整体落在调用方的 ADMIN 门禁上。
func (s *Service) AdminUpdate(ctx context.Context, id string, in AdminUpdateInput) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	r, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, apperr.Invalidf("invalid status: %s", *in.Status)
		}
		r.Status = *in.Status
	}
	if in.AdminNotes != nil {
		notes := strings.TrimSpace(*in.AdminNotes)
		r.AdminNotes = &notes
	}
	if in.QuotedPrice != nil {
		if *in.QuotedPrice < 0 {
			return nil, apperr.Invalid("quotedPrice must be >= 0")
		}
		r.QuotedPrice = in.QuotedPrice
	}
	if in.EstimatedDelivery != nil {
		d, err := parseDeliveryDate(*in.EstimatedDelivery)
		if err != nil {
			return nil, apperr.Invalidf("invalid estimatedDelivery: %s", *in.EstimatedDelivery)
		}
		r.EstimatedDelivery = &d
	}

	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// AcceptQuote 发起人接受报价：QUOTED -> ACCEPTED，
// 除取消外唯一的非运营状态流转。
func (s *Service) AcceptQuote(ctx context.Context, id, requesterID string) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	r, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanAcceptQuote(requesterID, r) {
		return nil, apperr.Forbidden("You are not authorized to accept this quote")
	}
	if !CanSelfTransition(r.Status, StatusAccepted) {
		return nil, apperr.Invalid("This request has not been quoted yet")
	}
	r.Status = StatusAccepted
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Cancel 发起人或运营取消。COMPLETED 不可取消；其余任意状态
// （包括已取消）都会落到 CANCELLED，重复取消等价幂等，
// 已有的报价/接受被静默丢弃。
func (s *Service) Cancel(ctx context.Context, id, callerID string, callerRole user.Role) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	r, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanCancel(callerID, callerRole, r) {
		return nil, apperr.Forbidden("You are not authorized to cancel this request")
	}
	if !CanSelfTransition(r.Status, StatusCancelled) {
		return nil, apperr.Invalid("Cannot cancel a completed request")
	}
	r.Status = StatusCancelled
	if err := s.store.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Remove 删除请求并返回删除前的记录。配图删除是尽力而为：
// 托管方不可用只记日志，绝不阻塞记录删除。
func (s *Service) Remove(ctx context.Context, id, callerID string, callerRole user.Role) (*Request, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	r, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanDelete(callerID, callerRole, r) {
		return nil, apperr.Forbidden("You are not authorized to delete this request")
	}

	if r.ImageURL != nil {
		s.deleteAssetQuietly(ctx, *r.ImageURL)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, apperr.NotFound("Assisted sourcing request not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) findExisting(ctx context.Context, id string) (*Request, error) {
	r, err := s.store.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil, apperr.NotFound("Assisted sourcing request not found")
		}
		return nil, err
	}
	return r, nil
}

func (s *Service) deleteAssetQuietly(ctx context.Context, url string) {
	publicID := asset.ExtractPublicID(url)
	if publicID == "" {
		return
	}
	if err := s.assets.Delete(ctx, publicID); err != nil && s.log != nil {
		s.log.Warnf("failed to delete image asset public_id=%s: %v", publicID, err)
	}
}

// parseDeliveryDate 接受 "2006-01-02" 或 RFC3339。
func parseDeliveryDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if d, err := time.Parse("2006-01-02", v); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, v)
}
