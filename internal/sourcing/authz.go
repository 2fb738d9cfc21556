package sourcing

import "github.com/Abukstech/folocom/internal/user"

// 每个操作一个授权谓词，入参统一为 (调用者, 角色, 记录)，
// 不依赖持久化即可单测。

// CanView 发起人本人或运营可查看单条请求。
func CanView(callerID string, callerRole user.Role, r *Request) bool {
	if r == nil {
		return false
	}
	return r.UserID == callerID || callerRole.IsStaff()
}

// CanSelfEdit 仅发起人本人可自助修改；运营走 AdminUpdate，
// 两条通道刻意不互通，避免自助路径悄悄执行管理动作。
func CanSelfEdit(callerID string, r *Request) bool {
	return r != nil && r.UserID == callerID
}

// CanAcceptQuote 仅发起人本人可接受报价。
func CanAcceptQuote(callerID string, r *Request) bool {
	return r != nil && r.UserID == callerID
}

// CanCancel 发起人本人或运营可取消。
func CanCancel(callerID string, callerRole user.Role, r *Request) bool {
	if r == nil {
		return false
	}
	return r.UserID == callerID || callerRole.IsStaff()
}

// CanDelete 发起人本人或运营可删除。
func CanDelete(callerID string, callerRole user.Role, r *Request) bool {
	if r == nil {
		return false
	}
	return r.UserID == callerID || callerRole.IsStaff()
}

// CanListAll 仅运营可查看全量列表。
func CanListAll(callerRole user.Role) bool {
	return callerRole.IsStaff()
}
