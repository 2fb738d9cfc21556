package part

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Abukstech/folocom/internal/asset"
	"github.com/Abukstech/folocom/internal/common/apperr"
	"github.com/Abukstech/folocom/internal/common/logger"
	"github.com/Abukstech/folocom/internal/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// imageFolder 商品图片在托管方的子目录。
const imageFolder = "parts"

// CategoryChecker 分类存在性校验（由 category.Repo 实现）。
type CategoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service 封装配件商品的核心用例：发布、检索、卖家自管与图片生命周期。
type Service struct {
	repo       *Repo
	categories CategoryChecker
	assets     asset.Store
	log        logger.Logger
}

func NewService(repo *Repo, categories CategoryChecker, assets asset.Store, log logger.Logger) *Service {
	return &Service{repo: repo, categories: categories, assets: assets, log: log}
}

// CreateInput 发布商品的入参。
type CreateInput struct {
	CategoryID  string
	Name        string
	CarMake     string
	CarModel    string
	CarYear     int
	Condition   Condition
	Description string
	Price       float64
	Quantity    int
}

func (in CreateInput) validate() error {
	if len(strings.TrimSpace(in.Name)) < 3 {
		return apperr.Invalid("name must be at least 3 characters")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return apperr.Invalid("categoryId required")
	}
	if strings.TrimSpace(in.CarMake) == "" || strings.TrimSpace(in.CarModel) == "" {
		return apperr.Invalid("carMake and carModel required")
	}
	if in.CarYear < 1900 {
		return apperr.Invalid("carYear must be >= 1900")
	}
	if !ValidCondition(in.Condition) {
		return apperr.Invalidf("invalid condition: %s", in.Condition)
	}
	if in.Price < 0 {
		return apperr.Invalid("price must be >= 0")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, sellerID string, in CreateInput, image io.Reader) (*Part, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	ok, err := s.categories.Exists(ctx, strings.TrimSpace(in.CategoryID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Invalid("Category not found")
	}

	var imageURL *string
	var uploaded *asset.Image
	if image != nil {
		uploaded, err = s.assets.Upload(ctx, image, imageFolder)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalid, "Failed to upload image", err)
		}
		imageURL = &uploaded.URL
	}

	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	p := &Part{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		CategoryID:  strings.TrimSpace(in.CategoryID),
		Name:        strings.TrimSpace(in.Name),
		CarMake:     strings.TrimSpace(in.CarMake),
		CarModel:    strings.TrimSpace(in.CarModel),
		CarYear:     in.CarYear,
		Condition:   in.Condition,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Quantity:    quantity,
		ImageURL:    imageURL,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		// 入库失败时回收刚上传的图片，避免产生无主 blob
		if uploaded != nil {
			s.deleteAssetQuietly(ctx, uploaded.URL)
		}
		return nil, err
	}
	return p, nil
}

// UpdateInput 卖家自助更新，patch 语义：nil 字段不修改。
type UpdateInput struct {
	CategoryID  *string
	Name        *string
	CarMake     *string
	CarModel    *string
	CarYear     *int
	Condition   *Condition
	Description *string
	Price       *float64
	Quantity    *int
}

func (s *Service) Update(ctx context.Context, id, callerID string, callerRole user.Role, in UpdateInput, image io.Reader) (*Part, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	p, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	// 发布者或管理员可改
	if p.SellerID != callerID && !callerRole.IsStaff() {
		return nil, apperr.Forbidden("You are not authorized to update this part")
	}

	if in.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, strings.TrimSpace(*in.CategoryID))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Invalid("Category not found")
		}
		p.CategoryID = strings.TrimSpace(*in.CategoryID)
	}
	if in.Name != nil {
		if len(strings.TrimSpace(*in.Name)) < 3 {
			return nil, apperr.Invalid("name must be at least 3 characters")
		}
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.CarMake != nil {
		p.CarMake = strings.TrimSpace(*in.CarMake)
	}
	if in.CarModel != nil {
		p.CarModel = strings.TrimSpace(*in.CarModel)
	}
	if in.CarYear != nil {
		if *in.CarYear < 1900 {
			return nil, apperr.Invalid("carYear must be >= 1900")
		}
		p.CarYear = *in.CarYear
	}
	if in.Condition != nil {
		if !ValidCondition(*in.Condition) {
			return nil, apperr.Invalidf("invalid condition: %s", *in.Condition)
		}
		p.Condition = *in.Condition
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, apperr.Invalid("price must be >= 0")
		}
		p.Price = *in.Price
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return nil, apperr.Invalid("quantity must be >= 0")
		}
		p.Quantity = *in.Quantity
	}

	if image != nil {
		// 先传新图再删旧图：上传失败时记录和旧图都保持原样
		uploaded, err := s.assets.Upload(ctx, image, imageFolder)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInvalid, "Failed to upload image", err)
		}
		if p.ImageURL != nil {
			s.deleteAssetQuietly(ctx, *p.ImageURL)
		}
		p.ImageURL = &uploaded.URL
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Remove(ctx context.Context, id, callerID string, callerRole user.Role) (*Part, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}

	p, err := s.findExisting(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != callerID && !callerRole.IsStaff() {
		return nil, apperr.Forbidden("You are not authorized to delete this part")
	}

	// 托管方不可用不阻塞删除
	if p.ImageURL != nil {
		s.deleteAssetQuietly(ctx, *p.ImageURL)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Part, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.findExisting(ctx, id)
}

func (s *Service) List(ctx context.Context, f SearchFilter) ([]Part, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, f)
}

func (s *Service) ListMine(ctx context.Context, sellerID string, offset, limit int) ([]Part, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("service not initialized")
	}
	return s.repo.List(ctx, SearchFilter{SellerID: sellerID, Offset: offset, Limit: limit})
}

func (s *Service) findExisting(ctx context.Context, id string) (*Part, error) {
	p, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Part not found")
		}
		return nil, err
	}
	return p, nil
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
