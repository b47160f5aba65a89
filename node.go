package nodecore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-nodecore/internal/core/nodebase"
)

// Node 运行时上的一个节点
//
// 名称访问器在节点关闭后返回空字符串。
type Node struct {
	core *nodebase.Node
	rt   *Runtime

	closeOnce sync.Once
}

// Close 关闭节点并从运行时移除，重复调用无效果
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		_ = n.core.Close()
		n.rt.remove(n)
	})
	return nil
}

// Name 返回节点名称
func (n *Node) Name() string {
	return n.core.Name()
}

// Namespace 返回节点命名空间
func (n *Node) Namespace() string {
	return n.core.Namespace()
}

// FullyQualifiedName 返回完整限定名
func (n *Node) FullyQualifiedName() string {
	return n.core.FullyQualifiedName()
}

// Phase 返回生命周期阶段
func (n *Node) Phase() Phase {
	return n.core.Phase()
}

// UseIntraProcessDefault 进程内通信默认值
func (n *Node) UseIntraProcessDefault() bool {
	return n.core.UseIntraProcessDefault()
}

// EnableTopicStatisticsDefault 话题统计默认值
func (n *Node) EnableTopicStatisticsDefault() bool {
	return n.core.EnableTopicStatisticsDefault()
}

// Core 返回节点核心，供调度器等内部组件使用
func (n *Node) Core() *nodebase.Node {
	return n.core
}

// ════════════════════════════════════════════════════════════════════════════
//                              回调组
// ════════════════════════════════════════════════════════════════════════════

// CreateCallbackGroup 创建回调组
//
// 返回值是唯一的强引用。
func (n *Node) CreateCallbackGroup(typ CallbackGroupType, autoAddToExecutor bool) *CallbackGroup {
	return n.core.CreateCallbackGroup(typ, autoAddToExecutor)
}

// DefaultCallbackGroup 返回默认回调组
func (n *Node) DefaultCallbackGroup() *CallbackGroup {
	return n.core.DefaultCallbackGroup()
}

// CallbackGroupInNode 回调组是否属于本节点
func (n *Node) CallbackGroupInNode(g *CallbackGroup) bool {
	return n.core.CallbackGroupInNode(g)
}

// ForEachCallbackGroup 按创建顺序访问存活的回调组
func (n *Node) ForEachCallbackGroup(visitor func(*CallbackGroup)) {
	n.core.ForEachCallbackGroup(visitor)
}

// AssociatedWithExecutor 返回调度器关联标志
func (n *Node) AssociatedWithExecutor() *atomic.Bool {
	return n.core.AssociatedWithExecutor()
}

// ════════════════════════════════════════════════════════════════════════════
//                              图变化
// ════════════════════════════════════════════════════════════════════════════

// GraphGuardCondition 返回图变化守护条件，节点关闭后返回 false
func (n *Node) GraphGuardCondition() (GuardCondition, bool) {
	return n.core.NotifyGuardCondition()
}

// TriggerGraphChange 手动触发图变化信号
func (n *Node) TriggerGraphChange() error {
	return n.core.TriggerNotifyGuardCondition()
}

// WaitForGraphChange 阻塞直到图变化、节点关闭或 ctx 结束
//
// 节点在等待期间关闭时返回 ErrNodeClosed。
func (n *Node) WaitForGraphChange(ctx context.Context) error {
	gc, ok := n.core.NotifyGuardCondition()
	if !ok {
		return ErrNodeClosed
	}
	select {
	case <-gc.C():
		return nil
	case <-n.core.Done():
		return ErrNodeClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              名称解析
// ════════════════════════════════════════════════════════════════════════════

// ResolveTopicName 展开并重映射话题名称
func (n *Node) ResolveTopicName(name string) (string, error) {
	return n.core.ResolveTopicOrServiceName(name, false, false)
}

// ResolveServiceName 展开并重映射服务名称
func (n *Node) ResolveServiceName(name string) (string, error) {
	return n.core.ResolveTopicOrServiceName(name, true, false)
}

// ExpandTopicOrServiceName 仅展开名称，不应用重映射
func (n *Node) ExpandTopicOrServiceName(name string, isService bool) (string, error) {
	return n.core.ResolveTopicOrServiceName(name, isService, true)
}
