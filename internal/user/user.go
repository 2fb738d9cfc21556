package user

import "time"

// Role 用户角色（持久化为字符串）。
type Role string

const (
	RoleBuyer    Role = "BUYER"    // 买家
	RoleSeller   Role = "SELLER"   // 卖家（发布配件）
	RoleMechanic Role = "MECHANIC" // 修理工（可代客户寻件）
	RoleAdmin    Role = "ADMIN"    // 运营/管理员
)

// ValidRole 判断是否是合法角色。
func ValidRole(r Role) bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleMechanic, RoleAdmin:
		return true
	}
	return false
}

// IsStaff 运营人员判定。管理操作（全量列表、报价、状态流转等）
// 仅对 ADMIN 开放。
func (r Role) IsStaff() bool {
	return r == RoleAdmin
}

// User 是 users 表的 GORM 模型。
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	PasswordSalt string    `gorm:"size:64;not null"`
	Name         string    `gorm:"size:64"`
	Phone        string    `gorm:"size:32"`
	Role         Role      `gorm:"type:varchar(16);not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}
