// Package apperr 定义统一的业务错误分类，供 service 层返回、
// 传输层映射为 HTTP 状态码。分类对齐各模块共同的错误语义：
// 实体不存在 / 已认证但无权限 / 入参语义非法 / 上游依赖不可用。
package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误分类
type Kind int

const (
	KindInternal     Kind = iota // 未分类 / 内部错误
	KindNotFound                 // 实体不存在
	KindForbidden                // 无权限执行该操作
	KindUnauthorized             // 未认证
	KindInvalid                  // 语义非法（状态阶段不对、枚举非法等）
	KindConflict                 // 唯一性冲突（如邮箱已注册）
)

// Error 携带分类的业务错误。
type Error struct {
	Kind Kind
	Msg  string
	Err  error // 可选的底层原因
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Msg: msg} }
func Invalid(msg string) error      { return &Error{Kind: KindInvalid, Msg: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Msg: msg} }

// Invalidf 带格式化的 KindInvalid 错误。
func Invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 保留底层错误，标注分类与说明。
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 取错误的分类；非 *Error 一律视为内部错误。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定分类。
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
