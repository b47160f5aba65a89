// Package config 提供 NodeCore 的统一配置管理
//
// 本包采用与各组件对应的分节配置：
//   - 主 Config 结构体包含所有子配置
//   - 每个子配置在独立文件中定义，带 DefaultXxxConfig() 与 Validate()
//   - 支持从 JSON 加载和保存配置
//   - 支持预设配置（development/production/minimal）
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Node.ResolveCacheSize = 256
//
//	// 从文件加载
//	cfg, err := config.LoadFile("nodecore.json")
package config

import "fmt"

// Config 是 NodeCore 的完整配置结构
//
// 配置按照组件组织：
//   - Context: 共享上下文（运行时）
//   - Node: 节点核心默认值
//   - Log: 日志
//   - Metrics: Prometheus 指标
//   - Tracing: OpenTelemetry 追踪
type Config struct {
	// Context 共享上下文配置
	Context ContextConfig `json:"context"`

	// Node 节点核心配置
	Node NodeConfig `json:"node"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Tracing 追踪配置
	Tracing TracingConfig `json:"tracing"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Context: DefaultContextConfig(),
		Node:    DefaultNodeConfig(),
		Log:     DefaultLogConfig(),
		Metrics: DefaultMetricsConfig(),
		Tracing: DefaultTracingConfig(),
	}
}

// Validate 验证配置的有效性
//
// 返回第一个无效子配置的错误，错误信息带有子配置名称前缀。
func (c *Config) Validate() error {
	sections := []struct {
		name string
		v    interface{ Validate() error }
	}{
		{"context", c.Context},
		{"node", c.Node},
		{"log", c.Log},
		{"metrics", c.Metrics},
		{"tracing", c.Tracing},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}
