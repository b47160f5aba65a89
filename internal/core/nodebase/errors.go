package nodebase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dep2p/go-nodecore/pkg/types"
)

// Sentinel errors
var (
	// ErrNilContext 共享上下文为空
	ErrNilContext = errors.New("nodebase: nil context")

	// ErrContextInvalid 共享上下文已关闭或已终结
	ErrContextInvalid = errors.New("nodebase: context is not valid")

	// ErrClosed 节点已关闭
	ErrClosed = errors.New("nodebase: node closed")
)

// ============================================================================
//                              构造错误
// ============================================================================

// ResourceInitError 资源创建失败（与名称合法性无关）
type ResourceInitError struct {
	Op   string       // 失败的操作
	Code types.Status // 协作方状态码
	Err  error        // 底层错误
}

func (e *ResourceInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("nodebase: %s (%s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("nodebase: %s (%s)", e.Op, e.Code)
}

// Unwrap 解包错误
func (e *ResourceInitError) Unwrap() error {
	return e.Err
}

// nameDiagnostic 生成带定位符的诊断信息
//
//	Invalid node name: node name must not contain characters other than alphanumerics or '_':
//	  'bad name!'
//	      ^
func nameDiagnostic(kind, reason, value string, index int) string {
	return fmt.Sprintf("Invalid %s: %s:\n  '%s'\n   %s^", kind, reason, value, strings.Repeat(" ", index))
}

// InvalidNameError 节点名称无效
type InvalidNameError struct {
	Name   string // 节点名称
	Reason string // 违规原因
	Index  int    // 违规字符位置
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("nodebase: invalid node name %q: %s (index %d)", e.Name, e.Reason, e.Index)
}

// Diagnostic 返回带定位符的多行诊断信息
func (e *InvalidNameError) Diagnostic() string {
	return nameDiagnostic("node name", e.Reason, e.Name, e.Index)
}

// Is 匹配中间件的名称无效状态码
func (e *InvalidNameError) Is(target error) bool {
	return target == types.ErrNodeInvalidName
}

// InvalidNamespaceError 节点命名空间无效
type InvalidNamespaceError struct {
	Namespace string // 命名空间
	Reason    string // 违规原因
	Index     int    // 违规字符位置
}

func (e *InvalidNamespaceError) Error() string {
	return fmt.Sprintf("nodebase: invalid namespace %q: %s (index %d)", e.Namespace, e.Reason, e.Index)
}

// Diagnostic 返回带定位符的多行诊断信息
func (e *InvalidNamespaceError) Diagnostic() string {
	return nameDiagnostic("namespace", e.Reason, e.Namespace, e.Index)
}

// Is 匹配中间件的命名空间无效状态码
func (e *InvalidNamespaceError) Is(target error) bool {
	return target == types.ErrNodeInvalidNamespace
}

// InternalInconsistencyError 中间件拒绝了校验协作方认为合法的名称
type InternalInconsistencyError struct {
	What  string // "node name" 或 "namespace"
	Value string // 被拒绝的值
	Err   error  // 中间件返回的错误
}

func (e *InternalInconsistencyError) Error() string {
	return fmt.Sprintf("nodebase: valid %s %q rejected by middleware: %v", e.What, e.Value, e.Err)
}

// Unwrap 解包错误
func (e *InternalInconsistencyError) Unwrap() error {
	return e.Err
}

// ============================================================================
//                              名称解析错误
// ============================================================================

// ResolutionError 话题或服务名称解析失败
type ResolutionError struct {
	Name string       // 待解析的名称
	Code types.Status // 协作方状态码
	Err  error        // 底层错误
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("nodebase: failed to resolve name %q (%s): %v", e.Name, e.Code, e.Err)
}

// Unwrap 解包错误
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
