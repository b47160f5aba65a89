package config

import (
	"fmt"
	"strings"
)

// LogConfig 日志配置
type LogConfig struct {
	// Level 级别配置，格式同 NODECORE_LOG_LEVEL
	// 示例: "core/nodebase=debug,info"
	Level string `json:"level"`

	// Format 输出格式：text 或 json
	Format string `json:"format"`

	// AddSource 是否添加源码位置
	AddSource bool `json:"add_source"`

	// FxEvents 是否输出 fx 依赖注入事件
	FxEvents bool `json:"fx_events"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
