// Package nodebase 实现节点核心
//
// Node 组合四个部件：
//   - graphsignal.Signal：通信图变化信号
//   - nodehandle.Handle：与共享上下文绑定生命周期的底层节点句柄
//   - callbackgroup.Registry：回调组弱引用注册表
//   - lifecycle.Coordinator：构造/终结阶段
//
// 构造顺序（任何一步失败都会回滚之前获取的资源）：
//
//	创建守护条件 → 持全局锁初始化底层句柄 → 绑定上下文 → 创建默认回调组 → 信号置为有效
//
// 终结顺序：信号失效并终结 → 释放底层句柄（可能释放上下文引用）。
package nodebase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dep2p/go-nodecore/internal/core/callbackgroup"
	"github.com/dep2p/go-nodecore/internal/core/graphsignal"
	"github.com/dep2p/go-nodecore/internal/core/lifecycle"
	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/core/nodehandle"
	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
	"github.com/dep2p/go-nodecore/pkg/types"
)

var logger = log.Logger("core/nodebase")

// resolveKey 名称解析缓存键
type resolveKey struct {
	name       string
	isService  bool
	onlyExpand bool
}

// Node 节点核心
type Node struct {
	ctx  *rtcontext.Context
	mw   interfaces.Middleware
	opts options

	useIntraProcessDefault       bool
	enableTopicStatisticsDefault bool

	handle       *nodehandle.Handle
	signal       *graphsignal.Signal
	groups       *callbackgroup.Registry
	defaultGroup *callbackgroup.Group

	// associated 节点是否已被某个调度器关联
	associated atomic.Bool

	coord  *lifecycle.Coordinator
	tracer trace.Tracer
	cache  *lru.Cache[resolveKey, string]

	// fqn 构造时的完整限定名，仅用于日志
	fqn string

	// done 在 Close 开始时关闭
	done      chan struct{}
	closeOnce sync.Once
}

// New 构造节点核心
//
// 成功时返回处于 lifecycle.PhaseReady 的节点；失败时不返回任何部分构造的对象，
// 错误为 *ResourceInitError、*InvalidNameError、*InvalidNamespaceError
// 或 *InternalInconsistencyError 之一。
func New(
	name, namespace string,
	ctx *rtcontext.Context,
	nodeOpts types.NodeOptions,
	useIntraProcessDefault, enableTopicStatisticsDefault bool,
	opts ...Option,
) (*Node, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	tracer := o.tracerProvider.Tracer(tracerName)
	_, span := tracer.Start(context.Background(), "nodebase.New",
		trace.WithAttributes(
			attribute.String("node.name", name),
			attribute.String("node.namespace", namespace),
		))
	defer span.End()

	coord := lifecycle.NewCoordinator(lifecycle.WithClock(o.clock), lifecycle.WithName(name))
	start := o.clock.Now()

	fail := func(reason string, err error) (*Node, error) {
		_ = coord.Fail(err)
		o.metrics.InitFailed(reason)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Debug("节点核心构造失败", "name", name, "namespace", namespace, "reason", reason, "error", err)
		return nil, err
	}

	if ctx == nil {
		return fail(metrics.ReasonContext, &ResourceInitError{
			Op:   "missing context",
			Code: types.StatusInvalidArgument,
			Err:  ErrNilContext,
		})
	}
	if !ctx.IsValid() {
		return fail(metrics.ReasonContext, &ResourceInitError{
			Op:   "context is not valid",
			Code: types.StatusNotInit,
			Err:  ErrContextInvalid,
		})
	}
	mw := ctx.Middleware()

	// 1. 守护条件
	signal, err := graphsignal.New(mw, ctx.Runtime())
	if err != nil {
		return fail(metrics.ReasonGuardCondition, &ResourceInitError{
			Op:   "failed to create interrupt guard condition",
			Code: types.StatusOf(err),
			Err:  err,
		})
	}
	_ = coord.AdvanceTo(lifecycle.PhaseGuardConditionReady)
	span.AddEvent("guard condition ready")

	rollbackSignal := func() {
		if ferr := signal.Finalize(); ferr != nil {
			logger.Error("回滚时终结守护条件失败", "name", name, "error", ferr)
			o.metrics.FinalizeFailed(metrics.ResourceGuardCondition)
		}
	}

	// 2. 底层节点句柄
	o.lock.Lock()
	raw, err := mw.InitNode(ctx.Runtime(), name, namespace, nodeOpts)
	o.lock.Unlock()
	if err != nil {
		rollbackSignal()
		reason, cerr := classifyInitError(err, name, namespace, o.validator)
		return fail(reason, cerr)
	}

	// 3. 绑定上下文
	handle, err := nodehandle.Make(ctx, o.lock, mw, raw,
		nodehandle.WithFinalizeErrorHandler(func(error) {
			o.metrics.FinalizeFailed(metrics.ResourceNodeHandle)
		}))
	if err != nil {
		o.lock.Lock()
		ferr := mw.FiniNode(raw)
		o.lock.Unlock()
		if ferr != nil {
			logger.Error("回滚时终结节点句柄失败", "name", name, "error", ferr)
			o.metrics.FinalizeFailed(metrics.ResourceNodeHandle)
		}
		rollbackSignal()
		return fail(metrics.ReasonResource, &ResourceInitError{
			Op:   "failed to bind node handle to context",
			Code: types.StatusOf(err),
			Err:  err,
		})
	}
	_ = coord.AdvanceTo(lifecycle.PhaseHandleReady)
	span.AddEvent("node handle ready")

	n := &Node{
		ctx:                          ctx,
		mw:                           mw,
		opts:                         o,
		useIntraProcessDefault:       useIntraProcessDefault,
		enableTopicStatisticsDefault: enableTopicStatisticsDefault,
		handle:                       handle,
		signal:                       signal,
		groups:                       callbackgroup.NewRegistry(),
		coord:                        coord,
		tracer:                       tracer,
		done:                         make(chan struct{}),
	}
	n.fqn, _ = mw.NodeFullyQualifiedName(raw)

	if o.resolveCacheSize > 0 {
		// 容量为正时 lru.New 不会失败
		n.cache, _ = lru.New[resolveKey, string](o.resolveCacheSize)
	}

	// 4. 默认回调组
	n.defaultGroup = n.CreateCallbackGroup(types.CallbackGroupMutuallyExclusive, true)

	// 5. 信号置为有效
	signal.Validate()
	_ = coord.AdvanceTo(lifecycle.PhaseReady)

	o.metrics.NodeCreated(o.clock.Since(start))
	span.SetAttributes(attribute.String("node.fqn", n.fqn))
	logger.Debug("节点核心已就绪", "node", n.fqn)
	return n, nil
}

// classifyInitError 将底层句柄初始化失败分类为结构化错误
//
// 名称或命名空间被拒绝时，重新调用校验协作方获取精确诊断；
// 校验协作方认为合法时返回 InternalInconsistencyError。
func classifyInitError(err error, name, namespace string, v interfaces.NameValidator) (string, error) {
	switch {
	case errors.Is(err, types.ErrNodeInvalidName):
		res, verr := v.ValidateNodeName(name)
		if verr != nil {
			return metrics.ReasonResource, validatorFailure("failed to validate node name", verr)
		}
		if !res.Valid() {
			return metrics.ReasonInvalidName, &InvalidNameError{
				Name:   name,
				Reason: res.Reason(),
				Index:  res.InvalidIndex,
			}
		}
		return metrics.ReasonInconsistency, &InternalInconsistencyError{What: "node name", Value: name, Err: err}

	case errors.Is(err, types.ErrNodeInvalidNamespace):
		res, verr := v.ValidateNamespace(namespace)
		if verr != nil {
			return metrics.ReasonResource, validatorFailure("failed to validate namespace", verr)
		}
		if !res.Valid() {
			return metrics.ReasonInvalidNS, &InvalidNamespaceError{
				Namespace: namespace,
				Reason:    res.Reason(),
				Index:     res.InvalidIndex,
			}
		}
		return metrics.ReasonInconsistency, &InternalInconsistencyError{What: "namespace", Value: namespace, Err: err}

	default:
		return metrics.ReasonResource, &ResourceInitError{
			Op:   "failed to initialize node handle",
			Code: types.StatusOf(err),
			Err:  err,
		}
	}
}

// validatorFailure 校验协作方自身失败：参数无效保留原状态码，其余视为通用错误
func validatorFailure(op string, err error) error {
	code := types.StatusGeneric
	if errors.Is(err, types.ErrInvalidArgument) {
		code = types.StatusInvalidArgument
	}
	return &ResourceInitError{Op: op, Code: code, Err: err}
}

// ============================================================================
//                              终结
// ============================================================================

// Close 终结节点核心
//
// 先在信号锁内使信号失效并终结守护条件，再释放底层句柄。
// 终结失败只记录日志，Close 总是返回 nil。重复调用无效果。
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		_, span := n.tracer.Start(context.Background(), "nodebase.Close",
			trace.WithAttributes(attribute.String("node.fqn", n.fqn)))
		defer span.End()

		_ = n.coord.AdvanceTo(lifecycle.PhaseShuttingDown)
		close(n.done)

		if err := n.signal.Close(); err != nil {
			n.opts.metrics.FinalizeFailed(metrics.ResourceGuardCondition)
			span.RecordError(err)
		}
		n.handle.Release()

		_ = n.coord.AdvanceTo(lifecycle.PhaseFinalized)
		n.opts.metrics.NodeFinalized()
		logger.Debug("节点核心已终结", "node", n.fqn)
	})
	return nil
}

// Done 返回在节点开始关闭时关闭的通道
//
// 等待图变化的调用方应同时等待该通道：守护条件终结后不会再有唤醒。
func (n *Node) Done() <-chan struct{} {
	return n.done
}

// Phase 返回当前阶段
func (n *Node) Phase() lifecycle.Phase {
	return n.coord.Phase()
}

// Lifecycle 返回阶段协调器
func (n *Node) Lifecycle() *lifecycle.Coordinator {
	return n.coord
}

// ============================================================================
//                              名称访问
// ============================================================================

func (n *Node) query(what string, get func(interfaces.NodeHandle) (string, error)) string {
	raw := n.handle.Raw()
	if raw == nil {
		return ""
	}
	s, err := get(raw)
	if err != nil {
		logger.Warn("读取节点属性失败", "node", n.fqn, "what", what, "error", err)
		return ""
	}
	return s
}

// Name 返回节点名称，节点关闭后返回空字符串
func (n *Node) Name() string {
	return n.query("name", n.mw.NodeName)
}

// Namespace 返回节点命名空间，节点关闭后返回空字符串
func (n *Node) Namespace() string {
	return n.query("namespace", n.mw.NodeNamespace)
}

// FullyQualifiedName 返回节点完整限定名，节点关闭后返回空字符串
func (n *Node) FullyQualifiedName() string {
	return n.query("fully qualified name", n.mw.NodeFullyQualifiedName)
}

// Context 返回共享上下文
func (n *Node) Context() *rtcontext.Context {
	return n.ctx
}

// RawHandle 返回底层节点句柄，不转移所有权；节点关闭后返回 nil
func (n *Node) RawHandle() interfaces.NodeHandle {
	return n.handle.Raw()
}

// SharedHandle 返回底层句柄的一个新所有者
//
// 调用方必须 Release 返回的句柄。新所有者存活期间，
// 即使节点关闭，底层句柄和共享上下文也不会被终结。
func (n *Node) SharedHandle() (*nodehandle.Handle, error) {
	h, err := n.handle.Share()
	if err != nil {
		return nil, ErrClosed
	}
	return h, nil
}

// UseIntraProcessDefault 返回构造时的进程内通信默认值
func (n *Node) UseIntraProcessDefault() bool {
	return n.useIntraProcessDefault
}

// EnableTopicStatisticsDefault 返回构造时的话题统计默认值
func (n *Node) EnableTopicStatisticsDefault() bool {
	return n.enableTopicStatisticsDefault
}

// ============================================================================
//                              回调组
// ============================================================================

// CreateCallbackGroup 创建回调组
//
// 节点只保存弱引用；返回值是唯一的强引用，调用方丢弃后该组从节点中消失。
func (n *Node) CreateCallbackGroup(typ types.CallbackGroupType, autoAddToExecutor bool) *callbackgroup.Group {
	g := n.groups.Create(typ, autoAddToExecutor)
	n.opts.metrics.CallbackGroupCreated(typ.String())
	return g
}

// DefaultCallbackGroup 返回默认回调组（互斥，自动关联调度器）
func (n *Node) DefaultCallbackGroup() *callbackgroup.Group {
	return n.defaultGroup
}

// CallbackGroupInNode 回调组是否属于本节点
func (n *Node) CallbackGroupInNode(g *callbackgroup.Group) bool {
	return n.groups.Contains(g)
}

// ForEachCallbackGroup 按创建顺序访问仍存活的回调组
//
// visitor 在注册表锁内执行，不得在其中创建回调组。
func (n *Node) ForEachCallbackGroup(visitor func(*callbackgroup.Group)) {
	n.groups.ForEach(visitor)
}

// AssociatedWithExecutor 返回调度器关联标志
func (n *Node) AssociatedWithExecutor() *atomic.Bool {
	return &n.associated
}

// ============================================================================
//                              图变化信号
// ============================================================================

// NotifyGuardCondition 返回图变化守护条件
//
// 节点尚未就绪或正在终结时返回 false。需要在使用期间阻止终结的调用方
// 应改用 AcquireNotifyGuardConditionLock。
func (n *Node) NotifyGuardCondition() (interfaces.GuardCondition, bool) {
	return n.signal.Get()
}

// AcquireNotifyGuardConditionLock 获取图变化信号的作用域锁
func (n *Node) AcquireNotifyGuardConditionLock() *graphsignal.Lock {
	return n.signal.AcquireLock()
}

// TriggerNotifyGuardCondition 触发图变化信号
func (n *Node) TriggerNotifyGuardCondition() error {
	lock := n.signal.AcquireLock()
	defer lock.Unlock()

	if err := lock.Trigger(); err != nil {
		return err
	}
	n.opts.metrics.GraphNotified()
	return nil
}

// ============================================================================
//                              名称解析
// ============================================================================

// ResolveTopicOrServiceName 展开并重映射话题或服务名称
//
// onlyExpand 为 true 时跳过重映射。结果按 (name, isService, onlyExpand) 缓存。
func (n *Node) ResolveTopicOrServiceName(name string, isService, onlyExpand bool) (string, error) {
	raw := n.handle.Raw()
	if raw == nil {
		return "", &ResolutionError{Name: name, Code: types.StatusNodeInvalid, Err: ErrClosed}
	}

	key := resolveKey{name: name, isService: isService, onlyExpand: onlyExpand}
	if n.cache != nil {
		if v, ok := n.cache.Get(key); ok {
			return v, nil
		}
	}

	alloc := n.opts.allocator
	buf, err := n.mw.ResolveName(raw, name, alloc, isService, onlyExpand)
	if err != nil {
		return "", &ResolutionError{Name: name, Code: types.StatusOf(err), Err: err}
	}
	defer alloc.Deallocate(buf)

	resolved := buf.String()
	if n.cache != nil {
		n.cache.Add(key, resolved)
	}
	return resolved, nil
}
