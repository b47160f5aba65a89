package nodecore

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/dep2p/go-nodecore/config"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              运行时选项
// ════════════════════════════════════════════════════════════════════════════

// Option 运行时配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 基础配置（WithConfig / WithConfigFile），nil 表示默认配置
	base *config.Config

	// 预设
	preset string

	// 在基础配置和预设之上按顺序应用的覆盖项
	overrides []func(*config.Config)

	// 协作方
	middleware     interfaces.Middleware
	validator      interfaces.NameValidator
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider

	// 日志
	logOutput    io.Writer
	skipLogSetup bool

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{}
}

// buildConfig 合成最终配置：基础配置 → 预设 → 覆盖项
func (o *options) buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if o.base != nil {
		c := *o.base
		cfg = &c
	}
	if err := config.ApplyPreset(cfg, o.preset); err != nil {
		return nil, err
	}
	for _, fn := range o.overrides {
		fn(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// WithConfig 使用完整配置作为基础
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.base = cfg
		return nil
	}
}

// WithConfigFile 从 JSON 文件加载基础配置
func WithConfigFile(path string) Option {
	return func(o *options) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		o.base = cfg
		return nil
	}
}

// WithPreset 应用预设（development/production/minimal）
func WithPreset(name string) Option {
	return func(o *options) error {
		if err := config.ApplyPreset(config.NewConfig(), name); err != nil {
			return err
		}
		o.preset = name
		return nil
	}
}

// WithDomainID 设置通信域 ID
func WithDomainID(id uint32) Option {
	return func(o *options) error {
		o.overrides = append(o.overrides, func(c *config.Config) { c.Context.DomainID = id })
		return nil
	}
}

// WithInstanceName 设置运行时实例名称
func WithInstanceName(name string) Option {
	return func(o *options) error {
		if name == "" {
			return errors.New("instance name must not be empty")
		}
		o.overrides = append(o.overrides, func(c *config.Config) { c.Context.InstanceName = name })
		return nil
	}
}

// WithResolveCacheSize 设置每个节点的名称解析缓存容量，0 表示关闭
func WithResolveCacheSize(size int) Option {
	return func(o *options) error {
		if size < 0 {
			return fmt.Errorf("invalid resolve cache size %d", size)
		}
		o.overrides = append(o.overrides, func(c *config.Config) { c.Node.ResolveCacheSize = size })
		return nil
	}
}

// WithRemapping 追加一条所有节点共享的重映射规则
func WithRemapping(kind RemapKind, from, to string) Option {
	return func(o *options) error {
		if from == "" || to == "" {
			return errors.New("remap from/to must not be empty")
		}
		o.overrides = append(o.overrides, func(c *config.Config) {
			c.Node.Remappings = append(c.Node.Remappings, config.RemapConfig{Kind: kind.String(), From: from, To: to})
		})
		return nil
	}
}

// WithMiddleware 设置底层中间件，默认使用进程内实现
func WithMiddleware(mw Middleware) Option {
	return func(o *options) error {
		if mw == nil {
			return errors.New("middleware is nil")
		}
		o.middleware = mw
		return nil
	}
}

// WithNameValidator 设置名称校验协作方
func WithNameValidator(v interfaces.NameValidator) Option {
	return func(o *options) error {
		o.validator = v
		return nil
	}
}

// WithRegisterer 设置 Prometheus 注册表，默认每个运行时使用独立注册表
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithTracerProvider 设置 TracerProvider，设置后忽略 tracing 配置
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) error {
		o.tracerProvider = tp
		return nil
	}
}

// WithLogOutput 设置日志输出目标，默认 stderr
func WithLogOutput(w io.Writer) Option {
	return func(o *options) error {
		o.logOutput = w
		return nil
	}
}

// WithoutLogSetup 不安装全局日志处理器
//
// 适用于宿主程序自行管理 slog.Default() 的场景。
func WithoutLogSetup() Option {
	return func(o *options) error {
		o.skipLogSetup = true
		return nil
	}
}

// WithFxOptions 追加用户自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}

// ════════════════════════════════════════════════════════════════════════════
//                              节点选项
// ════════════════════════════════════════════════════════════════════════════

// NodeOption 单个节点的构造选项
type NodeOption func(*nodeOptions)

type nodeOptions struct {
	remappings            []types.RemapRule
	disableLogSink        bool
	useIntraProcess       *bool
	enableTopicStatistics *bool
}

// WithNodeRemapping 追加一条仅作用于该节点的重映射规则
//
// 节点规则排在运行时规则之前，优先匹配。
func WithNodeRemapping(kind RemapKind, from, to string) NodeOption {
	return func(o *nodeOptions) {
		o.remappings = append(o.remappings, types.RemapRule{Kind: kind, From: from, To: to})
	}
}

// WithoutLogSink 不为节点挂载日志汇聚点
func WithoutLogSink() NodeOption {
	return func(o *nodeOptions) {
		o.disableLogSink = true
	}
}

// WithIntraProcessDefault 覆盖进程内通信默认值
func WithIntraProcessDefault(enabled bool) NodeOption {
	return func(o *nodeOptions) {
		o.useIntraProcess = &enabled
	}
}

// WithTopicStatisticsDefault 覆盖话题统计默认值
func WithTopicStatisticsDefault(enabled bool) NodeOption {
	return func(o *nodeOptions) {
		o.enableTopicStatistics = &enabled
	}
}
