// Package inproc 实现进程内中间件协作方
//
// 进程内中间件维护每个运行时的通信图（存活节点集合），
// 任何节点加入或离开都会触发该运行时上所有存活的守护条件，
// 从而唤醒等待图变化的调度器。
//
// 本实现不做任何网络 I/O。
package inproc

import (
	"bytes"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dep2p/go-nodecore/internal/naming"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
	"github.com/dep2p/go-nodecore/pkg/types"
)

var logger = log.Logger("middleware/inproc")

// Middleware 进程内中间件
type Middleware struct {
	nextID atomic.Uint64
}

var _ interfaces.Middleware = (*Middleware)(nil)

// New 创建进程内中间件
func New() *Middleware {
	return &Middleware{}
}

func (m *Middleware) allocID() uint64 {
	return m.nextID.Add(1)
}

// ============================================================================
//                              运行时
// ============================================================================

// runtime 运行时句柄
type runtime struct {
	id    string
	opts  types.ContextOptions
	valid atomic.Bool

	mu     sync.Mutex
	nodes  map[uint64]*node
	guards map[uint64]*guardCondition
}

// InstanceID 实现 interfaces.RuntimeHandle
func (r *runtime) InstanceID() string {
	return r.id
}

// IsValid 实现 interfaces.RuntimeHandle
func (r *runtime) IsValid() bool {
	return r.valid.Load()
}

// notifyGraphChangeLocked 触发运行时上所有存活的守护条件
//
// 调用方必须持有 r.mu。
func (r *runtime) notifyGraphChangeLocked() {
	for _, gc := range r.guards {
		_ = gc.Trigger()
	}
}

// InitRuntime 实现 interfaces.Middleware
func (m *Middleware) InitRuntime(opts types.ContextOptions) (interfaces.RuntimeHandle, error) {
	rt := &runtime{
		id:     uuid.New().String(),
		opts:   opts,
		nodes:  make(map[uint64]*node),
		guards: make(map[uint64]*guardCondition),
	}
	rt.valid.Store(true)

	logger.Debug("运行时已初始化",
		"instance", log.TruncateID(rt.id, 8),
		"domain", opts.DomainID,
		"name", opts.InstanceName)
	return rt, nil
}

// FiniRuntime 实现 interfaces.Middleware
//
// 仍有存活节点时返回错误，但运行时依然被标记为无效。
func (m *Middleware) FiniRuntime(h interfaces.RuntimeHandle) error {
	rt, ok := h.(*runtime)
	if !ok || rt == nil {
		return types.NewStatusError(types.StatusInvalidArgument, "not an in-process runtime handle")
	}
	if !rt.valid.CompareAndSwap(true, false) {
		return types.NewStatusError(types.StatusAlreadyShutdown, "runtime %s already finalized", rt.id)
	}

	rt.mu.Lock()
	live := len(rt.nodes)
	rt.mu.Unlock()

	logger.Debug("运行时已终结", "instance", log.TruncateID(rt.id, 8))
	if live > 0 {
		return types.NewStatusError(types.StatusGeneric, "runtime %s finalized with %d live nodes", rt.id, live)
	}
	return nil
}

// NodeNames 返回运行时上存活节点的完整限定名（已排序）
func (m *Middleware) NodeNames(h interfaces.RuntimeHandle) []string {
	rt, ok := h.(*runtime)
	if !ok || rt == nil {
		return nil
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	names := make([]string, 0, len(rt.nodes))
	for _, n := range rt.nodes {
		names = append(names, n.fqn)
	}
	sort.Strings(names)
	return names
}

// GuardConditionCount 返回运行时上存活守护条件的数量
func (m *Middleware) GuardConditionCount(h interfaces.RuntimeHandle) int {
	rt, ok := h.(*runtime)
	if !ok || rt == nil {
		return 0
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.guards)
}

// ============================================================================
//                              守护条件
// ============================================================================

// guardCondition 带缓冲的唤醒原语，未消费的多次触发合并为一次
type guardCondition struct {
	id        uint64
	rt        *runtime
	ch        chan struct{}
	finalized atomic.Bool
}

// Trigger 实现 interfaces.GuardCondition
func (g *guardCondition) Trigger() error {
	if g.finalized.Load() {
		return types.NewStatusError(types.StatusGuardConditionInvalid, "guard condition %d finalized", g.id)
	}
	select {
	case g.ch <- struct{}{}:
	default:
	}
	return nil
}

// C 实现 interfaces.GuardCondition
func (g *guardCondition) C() <-chan struct{} {
	return g.ch
}

// InitGuardCondition 实现 interfaces.Middleware
func (m *Middleware) InitGuardCondition(h interfaces.RuntimeHandle) (interfaces.GuardCondition, error) {
	rt, ok := h.(*runtime)
	if !ok || rt == nil {
		return nil, types.NewStatusError(types.StatusInvalidArgument, "not an in-process runtime handle")
	}
	if !rt.IsValid() {
		return nil, types.NewStatusError(types.StatusNotInit, "runtime %s is not valid", rt.id)
	}

	gc := &guardCondition{
		id: m.allocID(),
		rt: rt,
		ch: make(chan struct{}, 1),
	}

	rt.mu.Lock()
	rt.guards[gc.id] = gc
	rt.mu.Unlock()
	return gc, nil
}

// FiniGuardCondition 实现 interfaces.Middleware
func (m *Middleware) FiniGuardCondition(h interfaces.GuardCondition) error {
	gc, ok := h.(*guardCondition)
	if !ok || gc == nil {
		return types.NewStatusError(types.StatusInvalidArgument, "not an in-process guard condition")
	}
	if !gc.finalized.CompareAndSwap(false, true) {
		return types.NewStatusError(types.StatusGuardConditionInvalid, "guard condition %d already finalized", gc.id)
	}

	gc.rt.mu.Lock()
	delete(gc.rt.guards, gc.id)
	gc.rt.mu.Unlock()
	return nil
}

// ============================================================================
//                              节点句柄
// ============================================================================

// node 节点句柄
type node struct {
	id        uint64
	rt        *runtime
	name      string
	namespace string
	fqn       string
	opts      types.NodeOptions
	sink      bool
	finalized atomic.Bool
}

// HandleID 实现 interfaces.NodeHandle
func (n *node) HandleID() uint64 {
	return n.id
}

func (m *Middleware) liveNode(h interfaces.NodeHandle) (*node, error) {
	n, ok := h.(*node)
	if !ok || n == nil {
		return nil, types.NewStatusError(types.StatusNodeInvalid, "not an in-process node handle")
	}
	if n.finalized.Load() {
		return nil, types.NewStatusError(types.StatusNodeInvalid, "node %s already finalized", n.fqn)
	}
	return n, nil
}

// InitNode 实现 interfaces.Middleware
//
// 空命名空间视为 "/"。调用方必须持有 log.GlobalMutex()。
func (m *Middleware) InitNode(h interfaces.RuntimeHandle, name, namespace string, opts types.NodeOptions) (interfaces.NodeHandle, error) {
	rt, ok := h.(*runtime)
	if !ok || rt == nil {
		return nil, types.NewStatusError(types.StatusInvalidArgument, "not an in-process runtime handle")
	}
	if !rt.IsValid() {
		return nil, types.NewStatusError(types.StatusNotInit, "runtime %s is not valid", rt.id)
	}

	if namespace == "" {
		namespace = "/"
	}
	if v := naming.ValidateNodeName(name); !v.Valid() {
		return nil, types.NewStatusError(types.StatusNodeInvalidName, "node name %q rejected", name)
	}
	if v := naming.ValidateNamespace(namespace); !v.Valid() {
		return nil, types.NewStatusError(types.StatusNodeInvalidNamespace, "node namespace %q rejected", namespace)
	}

	n := &node{
		id:        m.allocID(),
		rt:        rt,
		name:      name,
		namespace: namespace,
		fqn:       naming.FullyQualifiedName(namespace, name),
		opts:      opts,
	}

	if opts.EnableLogSink {
		if err := log.AttachNodeSinkLocked(n.fqn); err != nil {
			return nil, types.NewStatusError(types.StatusGeneric, "attach log sink: %v", err)
		}
		n.sink = true
	}

	rt.mu.Lock()
	for _, other := range rt.nodes {
		if other.fqn == n.fqn {
			logger.Warn("存在同名节点，日志与名称解析可能混淆", "node", n.fqn)
			break
		}
	}
	rt.nodes[n.id] = n
	rt.notifyGraphChangeLocked()
	rt.mu.Unlock()

	logger.Debug("节点句柄已初始化", "node", n.fqn, "handle", n.id)
	return n, nil
}

// FiniNode 实现 interfaces.Middleware
//
// 调用方必须持有 log.GlobalMutex()。
func (m *Middleware) FiniNode(h interfaces.NodeHandle) error {
	n, ok := h.(*node)
	if !ok || n == nil {
		return types.NewStatusError(types.StatusNodeInvalid, "not an in-process node handle")
	}
	if !n.finalized.CompareAndSwap(false, true) {
		return types.NewStatusError(types.StatusNodeInvalid, "node %s already finalized", n.fqn)
	}

	n.rt.mu.Lock()
	delete(n.rt.nodes, n.id)
	n.rt.notifyGraphChangeLocked()
	n.rt.mu.Unlock()

	if n.sink {
		if err := log.DetachNodeSinkLocked(n.fqn); err != nil {
			return types.NewStatusError(types.StatusGeneric, "detach log sink: %v", err)
		}
	}

	logger.Debug("节点句柄已终结", "node", n.fqn, "handle", n.id)
	return nil
}

// NodeName 实现 interfaces.Middleware
func (m *Middleware) NodeName(h interfaces.NodeHandle) (string, error) {
	n, err := m.liveNode(h)
	if err != nil {
		return "", err
	}
	return n.name, nil
}

// NodeNamespace 实现 interfaces.Middleware
func (m *Middleware) NodeNamespace(h interfaces.NodeHandle) (string, error) {
	n, err := m.liveNode(h)
	if err != nil {
		return "", err
	}
	return n.namespace, nil
}

// NodeFullyQualifiedName 实现 interfaces.Middleware
func (m *Middleware) NodeFullyQualifiedName(h interfaces.NodeHandle) (string, error) {
	n, err := m.liveNode(h)
	if err != nil {
		return "", err
	}
	return n.fqn, nil
}

// ResolveName 实现 interfaces.Middleware
func (m *Middleware) ResolveName(h interfaces.NodeHandle, name string, alloc types.Allocator, isService, onlyExpand bool) (*bytes.Buffer, error) {
	n, err := m.liveNode(h)
	if err != nil {
		return nil, err
	}
	if alloc == nil {
		return nil, types.NewStatusError(types.StatusInvalidArgument, "nil allocator")
	}

	resolved, err := naming.Resolve(naming.ResolveRequest{
		Name:       name,
		Node:       n.name,
		Namespace:  n.namespace,
		Remappings: n.opts.Remappings,
		IsService:  isService,
		OnlyExpand: onlyExpand,
	})
	if err != nil {
		return nil, err
	}

	buf := alloc.Allocate(len(resolved))
	buf.WriteString(resolved)
	return buf, nil
}
