package nodebase

import (
	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// 模块元数据
const (
	ModuleName    = "nodebase"
	ModuleVersion = "1.0.0"
)

// Config 节点核心工厂配置
type Config struct {
	// UseIntraProcessDefault 新节点的进程内通信默认值
	UseIntraProcessDefault bool

	// EnableTopicStatisticsDefault 新节点的话题统计默认值
	EnableTopicStatisticsDefault bool

	// NodeOptions 新节点的默认句柄选项
	NodeOptions types.NodeOptions

	// ResolveCacheSize 每个节点的名称解析缓存容量
	ResolveCacheSize int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		NodeOptions:      types.DefaultNodeOptions(),
		ResolveCacheSize: DefaultResolveCacheSize,
	}
}

// Factory 在同一共享上下文上构造节点核心
type Factory struct {
	ctx  *rtcontext.Context
	cfg  Config
	opts []Option
}

// NewFactory 创建工厂
func NewFactory(ctx *rtcontext.Context, cfg Config, opts ...Option) *Factory {
	return &Factory{ctx: ctx, cfg: cfg, opts: opts}
}

// Context 返回工厂使用的共享上下文
func (f *Factory) Context() *rtcontext.Context {
	return f.ctx
}

// Config 返回工厂配置
func (f *Factory) Config() Config {
	return f.cfg
}

// New 以工厂默认值构造节点核心
//
// nodeOpts 为 nil 时使用配置中的默认句柄选项；extra 追加在工厂选项之后。
func (f *Factory) New(name, namespace string, nodeOpts *types.NodeOptions, extra ...Option) (*Node, error) {
	no := f.cfg.NodeOptions
	if nodeOpts != nil {
		no = *nodeOpts
	}
	return f.NewWithFlags(name, namespace, no,
		f.cfg.UseIntraProcessDefault, f.cfg.EnableTopicStatisticsDefault, extra...)
}

// NewWithFlags 以显式的句柄选项和两个默认值标志构造节点核心
func (f *Factory) NewWithFlags(
	name, namespace string,
	nodeOpts types.NodeOptions,
	useIntraProcessDefault, enableTopicStatisticsDefault bool,
	extra ...Option,
) (*Node, error) {
	opts := make([]Option, 0, len(f.opts)+len(extra)+1)
	opts = append(opts, WithResolveCacheSize(f.cfg.ResolveCacheSize))
	opts = append(opts, f.opts...)
	opts = append(opts, extra...)
	return New(name, namespace, f.ctx, nodeOpts, useIntraProcessDefault, enableTopicStatisticsDefault, opts...)
}

// FactoryParams 工厂依赖参数
type FactoryParams struct {
	fx.In

	Context        *rtcontext.Context
	Config         *Config                  `optional:"true"`
	Validator      interfaces.NameValidator `optional:"true"`
	Metrics        *metrics.Metrics         `optional:"true"`
	TracerProvider trace.TracerProvider     `optional:"true"`
	Clock          clock.Clock              `optional:"true"`
}

// FactoryResult 工厂导出结果
type FactoryResult struct {
	fx.Out

	Factory *Factory
}

// ProvideFactory 从依赖参数创建工厂
func ProvideFactory(p FactoryParams) FactoryResult {
	cfg := DefaultConfig()
	if p.Config != nil {
		cfg = *p.Config
	}
	return FactoryResult{
		Factory: NewFactory(p.Context, cfg,
			WithValidator(p.Validator),
			WithMetrics(p.Metrics),
			WithTracerProvider(p.TracerProvider),
			WithClock(p.Clock),
		),
	}
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module(ModuleName,
		fx.Provide(ProvideFactory),
	)
}
