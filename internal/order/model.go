package order

import "time"

// Status 订单状态枚举（持久化为字符串）。
type Status string

const (
	StatusPending    Status = "PENDING"    // 已创建，待处理
	StatusProcessing Status = "PROCESSING" // 备货/处理中
	StatusShipped    Status = "SHIPPED"    // 已发货
	StatusDelivered  Status = "DELIVERED"  // 已送达
	StatusCancelled  Status = "CANCELLED"  // 已取消
)

// Order 订单 GORM 模型。
type Order struct {
	ID          string  `gorm:"primaryKey;size:36"`
	UserID      string  `gorm:"index;size:36;not null"` // 下单用户
	Status      Status  `gorm:"type:varchar(16);index;not null"`
	TotalAmount float64 `gorm:"not null"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// OrderItem 订单行，价格为下单时的快照。
type OrderItem struct {
	ID       string  `gorm:"primaryKey;size:36"`
	OrderID  string  `gorm:"index;size:36;not null"`
	PartID   string  `gorm:"index;size:36;not null"`
	Quantity int     `gorm:"not null"`
	Price    float64 `gorm:"not null"`
}
