package sourcing

import (
	"context"
	"errors"
)

// ErrNotExist 请求不存在时由 Store 返回，service 层据此映射为 NotFound。
var ErrNotExist = errors.New("sourcing request does not exist")

// ListFilter 列表过滤：Status 为 nil 表示不过滤状态。
type ListFilter struct {
	Status *Status
	UserID string
	Offset int
	Limit  int
}

// Store 寻源请求的持久化契约。FindMany 按创建时间倒序返回
// 当前页与总数；找不到记录的读写一律返回 ErrNotExist。
type Store interface {
	Insert(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id string) (*Request, error)
	FindMany(ctx context.Context, f ListFilter) ([]Request, int64, error)
	Update(ctx context.Context, r *Request) error
	Delete(ctx context.Context, id string) error
}
