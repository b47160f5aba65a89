// Package interfaces 定义 NodeCore 的公共接口
//
// 本文件定义节点核心依赖的底层中间件协作方契约。
package interfaces

import (
	"bytes"

	"github.com/dep2p/go-nodecore/pkg/types"
)

// RuntimeHandle 底层运行时句柄
//
// 由 Middleware.InitRuntime 创建，由共享上下文独占持有。
type RuntimeHandle interface {
	// InstanceID 运行时实例 ID
	InstanceID() string

	// IsValid 运行时是否仍可用于创建节点和守护条件
	IsValid() bool
}

// NodeHandle 底层节点句柄（不透明）
type NodeHandle interface {
	// HandleID 句柄在所属运行时内的唯一编号
	HandleID() uint64
}

// GuardCondition 跨线程唤醒原语
//
// Trigger 可以在任意 goroutine 调用；等待方从 C() 读取唤醒信号。
// 多次触发在被消费前合并为一次。
type GuardCondition interface {
	// Trigger 触发唤醒
	Trigger() error

	// C 返回唤醒通道
	C() <-chan struct{}
}

// Middleware 底层中间件协作方
//
// 每个方法返回 error 作为状态：nil 表示成功，否则为 *types.StatusError
// （或包装了它的错误），由调用方按状态码分类。
//
// InitNode 与 FiniNode 会修改进程级共享状态（日志汇聚点注册），
// 调用方必须在持有全局串行锁的情况下调用它们。
type Middleware interface {
	// InitRuntime 初始化运行时
	InitRuntime(opts types.ContextOptions) (RuntimeHandle, error)

	// FiniRuntime 终结运行时
	FiniRuntime(rt RuntimeHandle) error

	// InitGuardCondition 在运行时上创建守护条件
	InitGuardCondition(rt RuntimeHandle) (GuardCondition, error)

	// FiniGuardCondition 终结守护条件
	FiniGuardCondition(gc GuardCondition) error

	// InitNode 初始化节点句柄
	//
	// 名称无效时返回 types.ErrNodeInvalidName，
	// 命名空间无效时返回 types.ErrNodeInvalidNamespace。
	InitNode(rt RuntimeHandle, name, namespace string, opts types.NodeOptions) (NodeHandle, error)

	// FiniNode 终结节点句柄
	FiniNode(h NodeHandle) error

	// NodeName 返回节点名称
	NodeName(h NodeHandle) (string, error)

	// NodeNamespace 返回节点命名空间
	NodeNamespace(h NodeHandle) (string, error)

	// NodeFullyQualifiedName 返回节点完整限定名
	NodeFullyQualifiedName(h NodeHandle) (string, error)

	// ResolveName 展开并（可选）重映射话题或服务名称
	//
	// 结果写入从 alloc 获取的缓冲区，所有权转移给调用方。
	// 出错时协作方负责归还自己分配的缓冲区并返回 nil。
	ResolveName(h NodeHandle, name string, alloc types.Allocator, isService, onlyExpand bool) (*bytes.Buffer, error)
}
