package nodecore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-nodecore/config"
	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/core/nodebase"
	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/internal/middleware/inproc"
	ulogger "github.com/dep2p/go-nodecore/internal/util/logger"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

var logger = log.Logger("nodecore")

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// startTimeout Fx App 启动超时
	startTimeout = 30 * time.Second

	// stopTimeout Close 使用的停止超时
	stopTimeout = 30 * time.Second
)

// Runtime 节点核心运行时
//
// 持有共享上下文和底层协作方，所有节点都在同一共享上下文上构造。
// 运行时停止后不可再次启动。
type Runtime struct {
	mu sync.Mutex

	cfg      *config.Config
	app      *fx.App
	gatherer prometheus.Gatherer

	// 由 Fx 注入
	ctx     *rtcontext.Context
	factory *nodebase.Factory
	metrics *metrics.Metrics

	nodes   map[*Node]struct{}
	started bool
	closed  bool
}

// New 创建运行时
//
// 运行时创建后需调用 Start 才能构造节点。
//
// 示例：
//
//	rt, err := nodecore.New(
//	    nodecore.WithDomainID(7),
//	    nodecore.WithRemapping(nodecore.RemapTopic, "chatter", "/robot/chatter"),
//	)
func New(opts ...Option) (*Runtime, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	cfg, err := o.buildConfig()
	if err != nil {
		return nil, err
	}

	// 日志必须最早安装
	if !o.skipLogSetup {
		ulogger.Install(cfg.Log.LoggerConfig(), o.logOutput)
	}

	if o.middleware == nil {
		o.middleware = inproc.New()
	}

	rt := &Runtime{
		cfg:   cfg,
		nodes: make(map[*Node]struct{}),
	}
	if o.registerer == nil {
		reg := prometheus.NewRegistry()
		o.registerer = reg
	}
	if g, ok := o.registerer.(prometheus.Gatherer); ok {
		rt.gatherer = g
	}

	app := buildFxApp(o, cfg, rt)
	if err := app.Err(); err != nil {
		return nil, fmt.Errorf("build fx app: %w", err)
	}
	rt.app = app

	logger.Debug("运行时已创建",
		"instance", cfg.Context.InstanceName,
		"domain", cfg.Context.DomainID)
	return rt, nil
}

// Start 启动运行时
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRuntimeClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := r.app.Start(startCtx); err != nil {
		logger.Error("运行时启动失败", "error", err)
		return fmt.Errorf("start fx app: %w", err)
	}

	r.started = true
	logger.Info("运行时已启动", "instance", r.cfg.Context.InstanceName)
	return nil
}

// Stop 关闭所有节点并停止运行时
//
// 共享上下文在最后一个引用释放时终结；调用方仍持有的 SharedHandle
// 会延迟这一时刻。
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRuntimeClosed
	}
	if !r.started {
		r.mu.Unlock()
		return ErrNotStarted
	}
	r.closed = true
	nodes := r.snapshotLocked()
	r.mu.Unlock()

	for _, n := range nodes {
		_ = n.Close()
	}

	err := r.app.Stop(ctx)

	r.mu.Lock()
	r.started = false
	r.mu.Unlock()

	if err != nil {
		logger.Error("停止运行时失败", "error", err)
		return fmt.Errorf("stop fx app: %w", err)
	}
	logger.Info("运行时已停止")
	return nil
}

// Close 停止运行时并释放所有资源，重复调用无效果
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	if r.started {
		r.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return r.Stop(ctx)
	}
	r.closed = true
	r.mu.Unlock()

	// 未启动时 Fx 的 OnStop 不会执行，直接释放创建者引用
	if r.ctx == nil {
		return nil
	}
	if err := r.ctx.Shutdown("runtime closed"); err != nil && !errors.Is(err, rtcontext.ErrShutdown) {
		logger.Warn("关闭共享上下文回调失败", "error", err)
	}
	return r.ctx.Close()
}

// ════════════════════════════════════════════════════════════════════════════
//                              节点管理
// ════════════════════════════════════════════════════════════════════════════

// CreateNode 在共享上下文上构造节点
//
// 失败时返回的错误可用 errors.As 判定为 *InvalidNameError、
// *InvalidNamespaceError、*ResourceInitError 或 *InternalInconsistencyError。
func (r *Runtime) CreateNode(name, namespace string, opts ...NodeOption) (*Node, error) {
	no := &nodeOptions{}
	for _, opt := range opts {
		opt(no)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRuntimeClosed
	}
	if !r.started {
		return nil, ErrNotStarted
	}

	nodeOpts, useIntra, stats := nodeOptionsFor(r.factory.Config(), no)
	core, err := r.factory.NewWithFlags(name, namespace, nodeOpts, useIntra, stats)
	if err != nil {
		return nil, err
	}

	n := &Node{core: core, rt: r}
	r.nodes[n] = struct{}{}
	return n, nil
}

// Nodes 返回存活的节点，按完整限定名排序
func (r *Runtime) Nodes() []*Node {
	r.mu.Lock()
	nodes := r.snapshotLocked()
	r.mu.Unlock()

	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].FullyQualifiedName() < nodes[j].FullyQualifiedName()
	})
	return nodes
}

func (r *Runtime) snapshotLocked() []*Node {
	nodes := make([]*Node, 0, len(r.nodes))
	for n := range r.nodes {
		nodes = append(nodes, n)
	}
	return nodes
}

func (r *Runtime) remove(n *Node) {
	r.mu.Lock()
	delete(r.nodes, n)
	r.mu.Unlock()
}

// ════════════════════════════════════════════════════════════════════════════
//                              访问器
// ════════════════════════════════════════════════════════════════════════════

// Context 返回共享上下文
func (r *Runtime) Context() *rtcontext.Context {
	return r.ctx
}

// Config 返回生效的配置
func (r *Runtime) Config() *config.Config {
	return r.cfg
}

// Gatherer 返回指标注册表，使用外部 Registerer 且其不可采集时返回 nil
func (r *Runtime) Gatherer() prometheus.Gatherer {
	return r.gatherer
}

// IsRunning 运行时是否已启动且未停止
func (r *Runtime) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.closed
}
