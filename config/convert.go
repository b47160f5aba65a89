package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/core/nodebase"
	"github.com/dep2p/go-nodecore/internal/util/logger"
	"github.com/dep2p/go-nodecore/internal/util/tracing"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "context": {"domain_id": 7},
//	  "node": {"resolve_cache_size": 256},
//	  "log": {"level": "core/nodebase=debug,info"}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadFile 从 JSON 文件加载并验证配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveFile 将配置以缩进 JSON 写入文件，必要时创建父目录
func SaveFile(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "development": 调试日志、fx 事件、全量追踪
//   - "production": JSON 日志、10% 采样
//   - "minimal": 关闭指标、追踪与名称解析缓存
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "development":
		cfg.Log.Level = "debug"
		cfg.Log.AddSource = true
		cfg.Log.FxEvents = true
		cfg.Tracing.SampleRatio = 1.0
	case "production":
		cfg.Log.Level = "info"
		cfg.Log.Format = "json"
		cfg.Log.FxEvents = false
		cfg.Tracing.SampleRatio = 0.1
	case "minimal":
		cfg.Metrics.Enabled = false
		cfg.Tracing.Enabled = false
		cfg.Node.ResolveCacheSize = 0
		cfg.Node.EnableLogSink = false
	case "":
		// 空预设，不做任何操作
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
	return nil
}

// ============================================================================
//                              组件配置转换
// ============================================================================

// ContextOptions 转换为共享上下文选项
func (c ContextConfig) ContextOptions() types.ContextOptions {
	return types.ContextOptions{
		DomainID:     c.DomainID,
		InstanceName: c.InstanceName,
	}
}

// remapKind 解析重映射作用范围，空值表示 any
func remapKind(kind string) types.RemapKind {
	switch kind {
	case "topic":
		return types.RemapTopic
	case "service":
		return types.RemapService
	default:
		return types.RemapAny
	}
}

// NodeOptions 转换为节点句柄选项
func (c NodeConfig) NodeOptions() types.NodeOptions {
	opts := types.NodeOptions{EnableLogSink: c.EnableLogSink}
	for _, r := range c.Remappings {
		opts.Remappings = append(opts.Remappings, types.RemapRule{
			Kind: remapKind(r.Kind),
			From: r.From,
			To:   r.To,
		})
	}
	return opts
}

// FactoryConfig 转换为节点核心工厂配置
func (c NodeConfig) FactoryConfig() nodebase.Config {
	return nodebase.Config{
		UseIntraProcessDefault:       c.UseIntraProcessDefault,
		EnableTopicStatisticsDefault: c.EnableTopicStatisticsDefault,
		NodeOptions:                  c.NodeOptions(),
		ResolveCacheSize:             c.ResolveCacheSize,
	}
}

// LoggerConfig 转换为日志处理器配置，并叠加环境变量
func (c LogConfig) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Level != "" {
		logger.ParseLevelSpec(cfg, c.Level)
	}
	cfg.Format = logger.ParseFormat(c.Format)
	cfg.AddSource = c.AddSource
	logger.ApplyEnv(cfg)
	return cfg
}

// DefaultLevel 返回默认日志级别，无法解析时为 info
func (c LogConfig) DefaultLevel() slog.Level {
	return c.LoggerConfig().DefaultLevel
}

// MetricsModuleConfig 转换为指标模块配置
func (c MetricsConfig) MetricsModuleConfig() *metrics.Config {
	return &metrics.Config{
		Enabled:   c.Enabled,
		Namespace: c.Namespace,
	}
}

// TracingSetupConfig 转换为追踪初始化配置
func (c TracingConfig) TracingSetupConfig() tracing.Config {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = c.Enabled
	cfg.ServiceName = c.ServiceName
	cfg.Endpoint = c.Endpoint
	cfg.Insecure = c.Insecure
	cfg.SampleRatio = c.SampleRatio
	return cfg
}
