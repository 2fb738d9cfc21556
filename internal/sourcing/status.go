package sourcing

// Status 寻源请求状态枚举（持久化为字符串）。
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusQuoted    Status = "QUOTED"
	StatusAccepted  Status = "ACCEPTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ValidStatus 判断是否是合法状态值。
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusQuoted, StatusAccepted, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// AllowSelfTransition 定义发起人自助操作允许的状态流转。
// 运营通道（AdminUpdate）不走这张表，可直接设置任意状态。
// CANCELLED -> CANCELLED 显式存在：重复取消等价幂等。
var AllowSelfTransition = map[Status][]Status{
	StatusPending:   {StatusCancelled},
	StatusQuoted:    {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusCancelled},
	StatusCancelled: {StatusCancelled},
	// COMPLETED 为终态：发起人不可再流转
	StatusCompleted: {},
}

// CanSelfTransition 判断 from -> to 是否是允许的自助流转。
func CanSelfTransition(from, to Status) bool {
	allowed, ok := AllowSelfTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Editable 判断当前状态下发起人是否还能自助修改请求内容。
// 进入运营处理阶段（QUOTED 及之后）后不可再改，避免报价后偷换需求。
func Editable(s Status) bool {
	return s == StatusPending || s == StatusCancelled
}
