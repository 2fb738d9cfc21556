package part

import "time"

// Condition 配件成色枚举（持久化为字符串）。
// TOKUNBO 为西非市场对进口二手件的通行叫法。
type Condition string

const (
	ConditionBrandNew    Condition = "BRAND_NEW"
	ConditionRefurbished Condition = "REFURBISHED"
	ConditionTokunbo     Condition = "TOKUNBO"
)

// ValidCondition 判断是否是合法成色。
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionBrandNew, ConditionRefurbished, ConditionTokunbo:
		return true
	}
	return false
}

// Part 是 parts 表的 GORM 模型。
type Part struct {
	ID          string    `gorm:"primaryKey;size:36"`
	SellerID    string    `gorm:"index;size:36;not null"` // 发布者，创建后不可变
	CategoryID  string    `gorm:"index;size:36;not null"`
	Name        string    `gorm:"size:128;not null"`
	CarMake     string    `gorm:"size:64;not null"`
	CarModel    string    `gorm:"size:64;not null"`
	CarYear     int       `gorm:"not null"`
	Condition   Condition `gorm:"type:varchar(16);not null"`
	Description string    `gorm:"type:text"`
	Price       float64   `gorm:"not null"`
	Quantity    int       `gorm:"not null;default:1"`
	ImageURL    *string   `gorm:"size:512"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
