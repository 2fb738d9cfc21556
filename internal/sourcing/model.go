package sourcing

import (
	"time"

	"github.com/Abukstech/folocom/internal/part"
)

// Request 是 sourcing_requests 表的 GORM 模型：
// 买家/修理工描述想要的配件，运营代为寻源报价。
type Request struct {
	ID                string         `gorm:"primaryKey;size:36"`
	UserID            string         `gorm:"index;size:36;not null"` // 发起人，创建后不可变
	CarMake           string         `gorm:"size:64;not null"`
	CarModel          string         `gorm:"size:64;not null"`
	CarYear           int            `gorm:"not null"`
	Condition         part.Condition `gorm:"type:varchar(16);not null"`
	PartDescription   string         `gorm:"type:text;not null"`
	ImageURL          *string        `gorm:"size:512"`
	Status            Status         `gorm:"type:varchar(16);not null;index"`
	AdminNotes        *string        `gorm:"type:text"` // 仅运营可写
	QuotedPrice       *float64       // 仅运营可写，>= 0
	EstimatedDelivery *time.Time     // 仅运营可写
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (Request) TableName() string {
	return "sourcing_requests"
}
