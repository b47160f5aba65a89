package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              协作方状态码
// ============================================================================

// Status 底层中间件协作方返回的状态码
//
// 协作方的每个调用都返回一个状态码；任何非 StatusOK 的状态都视为失败，
// 由节点核心负责分类处理。
type Status int

const (
	// StatusOK 成功
	StatusOK Status = iota

	// StatusGeneric 未分类的通用错误
	StatusGeneric

	// StatusBadAlloc 资源分配失败
	StatusBadAlloc

	// StatusInvalidArgument 参数无效
	StatusInvalidArgument

	// StatusNotInit 运行时未初始化或已失效
	StatusNotInit

	// StatusAlreadyShutdown 运行时已关闭
	StatusAlreadyShutdown

	// StatusNodeInvalid 节点句柄无效
	StatusNodeInvalid

	// StatusNodeInvalidName 节点名称无效
	StatusNodeInvalidName

	// StatusNodeInvalidNamespace 节点命名空间无效
	StatusNodeInvalidNamespace

	// StatusTopicNameInvalid 话题名称无效
	StatusTopicNameInvalid

	// StatusServiceNameInvalid 服务名称无效
	StatusServiceNameInvalid

	// StatusUnknownSubstitution 名称中包含未知的替换项
	StatusUnknownSubstitution

	// StatusGuardConditionInvalid 守护条件无效（已终结）
	StatusGuardConditionInvalid
)

// String 返回状态码的字符串表示
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusGeneric:
		return "error"
	case StatusBadAlloc:
		return "bad_alloc"
	case StatusInvalidArgument:
		return "invalid_argument"
	case StatusNotInit:
		return "not_init"
	case StatusAlreadyShutdown:
		return "already_shutdown"
	case StatusNodeInvalid:
		return "node_invalid"
	case StatusNodeInvalidName:
		return "node_invalid_name"
	case StatusNodeInvalidNamespace:
		return "node_invalid_namespace"
	case StatusTopicNameInvalid:
		return "topic_name_invalid"
	case StatusServiceNameInvalid:
		return "service_name_invalid"
	case StatusUnknownSubstitution:
		return "unknown_substitution"
	case StatusGuardConditionInvalid:
		return "guard_condition_invalid"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// StatusError 携带状态码的协作方错误
//
// errors.Is 按状态码匹配，因此可以直接与下方的哨兵错误比较：
//
//	if errors.Is(err, types.ErrNodeInvalidName) { ... }
type StatusError struct {
	Code    Status // 状态码
	Message string // 协作方提供的诊断信息
}

// NewStatusError 创建状态码错误
func NewStatusError(code Status, format string, args ...any) *StatusError {
	return &StatusError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error 实现 error 接口
func (e *StatusError) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Is 按状态码匹配
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusOf 提取错误中的状态码
//
// nil 返回 StatusOK；不携带状态码的错误视为 StatusGeneric。
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return StatusGeneric
}

// 状态码哨兵错误
var (
	// ErrBadAlloc 资源分配失败
	ErrBadAlloc = &StatusError{Code: StatusBadAlloc}

	// ErrInvalidArgument 参数无效
	ErrInvalidArgument = &StatusError{Code: StatusInvalidArgument}

	// ErrNotInit 运行时未初始化
	ErrNotInit = &StatusError{Code: StatusNotInit}

	// ErrAlreadyShutdown 运行时已关闭
	ErrAlreadyShutdown = &StatusError{Code: StatusAlreadyShutdown}

	// ErrNodeInvalid 节点句柄无效
	ErrNodeInvalid = &StatusError{Code: StatusNodeInvalid}

	// ErrNodeInvalidName 节点名称无效
	ErrNodeInvalidName = &StatusError{Code: StatusNodeInvalidName}

	// ErrNodeInvalidNamespace 节点命名空间无效
	ErrNodeInvalidNamespace = &StatusError{Code: StatusNodeInvalidNamespace}

	// ErrTopicNameInvalid 话题名称无效
	ErrTopicNameInvalid = &StatusError{Code: StatusTopicNameInvalid}

	// ErrServiceNameInvalid 服务名称无效
	ErrServiceNameInvalid = &StatusError{Code: StatusServiceNameInvalid}

	// ErrUnknownSubstitution 未知替换项
	ErrUnknownSubstitution = &StatusError{Code: StatusUnknownSubstitution}

	// ErrGuardConditionInvalid 守护条件无效
	ErrGuardConditionInvalid = &StatusError{Code: StatusGuardConditionInvalid}
)
