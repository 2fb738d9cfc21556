package part

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) Create(ctx context.Context, p *Part) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Create(p).Error
}

func (r *Repo) Update(ctx context.Context, p *Part) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Save(p).Error
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Delete(&Part{}, "id = ?", id).Error
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Part, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var p Part
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SearchFilter 商品列表的查询条件。
type SearchFilter struct {
	Search     string // 模糊匹配 name / description
	CarMake    string
	CarModel   string
	CarYear    int
	Condition  Condition
	CategoryID string
	SellerID   string
	Offset     int
	Limit      int
}

// List 按条件过滤 + 分页，按创建时间倒序。
func (r *Repo) List(ctx context.Context, f SearchFilter) ([]Part, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := db.Model(&Part{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.CarMake != "" {
		q = q.Where("car_make LIKE ?", "%"+f.CarMake+"%")
	}
	if f.CarModel != "" {
		q = q.Where("car_model LIKE ?", "%"+f.CarModel+"%")
	}
	if f.CarYear > 0 {
		q = q.Where("car_year = ?", f.CarYear)
	}
	if f.Condition != "" {
		q = q.Where("`condition` = ?", f.Condition)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.SellerID != "" {
		q = q.Where("seller_id = ?", f.SellerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var parts []Part
	if err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&parts).Error; err != nil {
		return nil, 0, err
	}
	return parts, total, nil
}
