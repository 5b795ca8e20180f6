package errs

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类
// 各层统一通过 Kind 判断错误类型，handler 层再映射为HTTP状态码
type Kind string

const (
	KindValidation    Kind = "VALIDATION"    // 参数非法或超出范围
	KindConflict      Kind = "CONFLICT"      // 唯一性/不变量冲突（如重复好友关系）
	KindAuthorization Kind = "AUTHORIZATION" // 操作者不具备所需角色
	KindState         Kind = "STATE"         // 当前生命周期状态不允许该操作
	KindNotFound      Kind = "NOT_FOUND"     // 实体不存在或对操作者不可见
	KindInternal      Kind = "INTERNAL"      // 内部错误
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 构造参数校验错误
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict 构造唯一性冲突错误
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Authorization 构造角色权限错误
func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// State 构造状态机错误（消息中需包含当前状态，便于排查）
func State(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// NotFound 构造实体不存在错误
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal 包装内部错误
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf 提取错误分类，非业务错误一律视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is 判断错误是否属于指定分类
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf 提取业务错误消息，用于对外响应
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
