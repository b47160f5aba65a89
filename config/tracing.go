package config

import (
	"errors"
	"time"
)

// TracingConfig 追踪配置
type TracingConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `json:"enabled"`

	// ServiceName 服务名
	ServiceName string `json:"service_name"`

	// Endpoint OTLP HTTP 端点（host:port）
	Endpoint string `json:"endpoint"`

	// Insecure 是否使用明文 HTTP
	Insecure bool `json:"insecure"`

	// SampleRatio 采样率 [0, 1]
	SampleRatio float64 `json:"sample_ratio"`

	// ShutdownTimeout 关闭时刷新 span 的超时
	ShutdownTimeout Duration `json:"shutdown_timeout"`
}

// DefaultTracingConfig 返回默认追踪配置（关闭）
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:     "nodecore",
		Endpoint:        "127.0.0.1:4318",
		Insecure:        true,
		SampleRatio:     1.0,
		ShutdownTimeout: Duration(10 * time.Second),
	}
}

// Validate 验证追踪配置
func (c TracingConfig) Validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return errors.New("sample ratio must be within [0, 1]")
	}
	if c.ShutdownTimeout < 0 {
		return errors.New("shutdown timeout must not be negative")
	}
	if c.Enabled && c.Endpoint == "" {
		return errors.New("endpoint is required when tracing is enabled")
	}
	return nil
}
