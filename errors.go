package nodecore

import (
	"errors"

	"github.com/dep2p/go-nodecore/internal/core/nodebase"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 运行时生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 运行时未启动
	ErrNotStarted = errors.New("runtime not started")

	// ErrAlreadyStarted 运行时已启动
	ErrAlreadyStarted = errors.New("runtime already started")

	// ErrRuntimeClosed 运行时已关闭
	ErrRuntimeClosed = errors.New("runtime closed")

	// ────────────────────────────────────────────────────────────────────────
	// 节点错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNodeClosed 节点已关闭
	ErrNodeClosed = nodebase.ErrClosed

	// ErrContextInvalid 共享上下文已关闭或已终结
	ErrContextInvalid = nodebase.ErrContextInvalid
)

// 节点构造与名称解析的结构化错误
type (
	// ResourceInitError 资源创建失败
	ResourceInitError = nodebase.ResourceInitError

	// InvalidNameError 节点名称无效
	InvalidNameError = nodebase.InvalidNameError

	// InvalidNamespaceError 命名空间无效
	InvalidNamespaceError = nodebase.InvalidNamespaceError

	// InternalInconsistencyError 底层与校验方结论不一致
	InternalInconsistencyError = nodebase.InternalInconsistencyError

	// ResolutionError 名称解析失败
	ResolutionError = nodebase.ResolutionError
)
