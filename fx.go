package nodecore

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-nodecore/config"
	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/core/nodebase"
	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/internal/util/tracing"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
	"github.com/dep2p/go-nodecore/pkg/types"
)

var fxLogger = log.Logger("nodecore/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置与协作方注入（中间件、注册表、TracerProvider）
//  2. rtcontext: 共享上下文，应用停止时关闭并释放创建者引用
//  3. metrics: 指标（可关闭，关闭时提供 nil）
//  4. nodebase: 节点核心工厂
//  5. 用户扩展
//  6. Runtime 组件注入
func buildFxApp(o *options, cfg *config.Config, rt *Runtime) *fx.App {
	ctxOpts := cfg.Context.ContextOptions()
	factoryCfg := cfg.Node.FactoryConfig()
	mw := o.middleware
	reg := o.registerer

	modules := []fx.Option{
		// 配置注入
		fx.Supply(cfg),
		fx.Supply(&ctxOpts),
		fx.Supply(&factoryCfg),
		fx.Supply(cfg.Metrics.MetricsModuleConfig()),

		// 协作方
		fx.Provide(func() interfaces.Middleware { return mw }),
		fx.Provide(func() prometheus.Registerer { return reg }),
		fx.Provide(provideTracerProvider(o.tracerProvider, cfg.Tracing)),

		rtcontext.Module(),
		metrics.Module,
		nodebase.Module(),
	}

	if o.validator != nil {
		v := o.validator
		modules = append(modules, fx.Provide(func() interfaces.NameValidator { return v }))
	}

	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	modules = append(modules, fx.Invoke(injectRuntimeComponents(rt)))

	// Fx 事件日志：默认丢弃，log.fx_events 打开时输出开发格式
	modules = append(modules, fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: newFxZapLogger(cfg.Log.FxEvents)}
	}))

	return fx.New(modules...)
}

func newFxZapLogger(enabled bool) *zap.Logger {
	if !enabled {
		return zap.NewNop()
	}
	zl, err := zap.NewDevelopment()
	if err != nil {
		fxLogger.Warn("创建 fx 事件日志失败，改为丢弃", "error", err)
		return zap.NewNop()
	}
	return zl
}

// provideTracerProvider 提供 TracerProvider
//
// 用户显式设置时直接使用；否则按 tracing 配置初始化，并在应用停止时刷新 span。
func provideTracerProvider(user trace.TracerProvider, cfg config.TracingConfig) func(fx.Lifecycle) (trace.TracerProvider, error) {
	return func(lc fx.Lifecycle) (trace.TracerProvider, error) {
		if user != nil {
			return user, nil
		}
		tp, shutdown, err := tracing.Setup(context.Background(), cfg.TracingSetupConfig())
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if d := cfg.ShutdownTimeout.Duration(); d > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, d)
					defer cancel()
				}
				return shutdown(ctx)
			},
		})
		return tp, nil
	}
}

// runtimeInjectParams Runtime 组件注入参数
type runtimeInjectParams struct {
	fx.In

	Context *rtcontext.Context
	Factory *nodebase.Factory
	Metrics *metrics.Metrics `optional:"true"`
}

// injectRuntimeComponents 创建 Runtime 组件注入函数
func injectRuntimeComponents(rt *Runtime) interface{} {
	return func(p runtimeInjectParams) {
		rt.ctx = p.Context
		rt.factory = p.Factory
		rt.metrics = p.Metrics
	}
}

// nodeOptionsFor 在工厂默认值之上应用单个节点的选项
func nodeOptionsFor(base nodebase.Config, no *nodeOptions) (types.NodeOptions, bool, bool) {
	opts := types.NodeOptions{
		EnableLogSink: base.NodeOptions.EnableLogSink && !no.disableLogSink,
	}
	opts.Remappings = make([]types.RemapRule, 0, len(no.remappings)+len(base.NodeOptions.Remappings))
	opts.Remappings = append(opts.Remappings, no.remappings...)
	opts.Remappings = append(opts.Remappings, base.NodeOptions.Remappings...)

	useIntra := base.UseIntraProcessDefault
	if no.useIntraProcess != nil {
		useIntra = *no.useIntraProcess
	}
	stats := base.EnableTopicStatisticsDefault
	if no.enableTopicStatistics != nil {
		stats = *no.enableTopicStatistics
	}
	return opts, useIntra, stats
}
