package config

import (
	"errors"
	"fmt"
)

// RemapConfig 名称重映射规则
type RemapConfig struct {
	// Kind 作用范围：any、topic 或 service
	Kind string `json:"kind"`

	// From 原名称
	From string `json:"from"`

	// To 目标名称
	To string `json:"to"`
}

// Validate 验证重映射规则
func (r RemapConfig) Validate() error {
	switch r.Kind {
	case "", "any", "topic", "service":
	default:
		return fmt.Errorf("unknown remap kind %q", r.Kind)
	}
	if r.From == "" || r.To == "" {
		return errors.New("remap from/to must not be empty")
	}
	return nil
}

// NodeConfig 节点核心配置
type NodeConfig struct {
	// UseIntraProcessDefault 新节点的进程内通信默认值
	UseIntraProcessDefault bool `json:"use_intra_process_default"`

	// EnableTopicStatisticsDefault 新节点的话题统计默认值
	EnableTopicStatisticsDefault bool `json:"enable_topic_statistics_default"`

	// EnableLogSink 是否为节点挂载日志汇聚点
	EnableLogSink bool `json:"enable_log_sink"`

	// ResolveCacheSize 每个节点的名称解析缓存容量，0 表示关闭
	ResolveCacheSize int `json:"resolve_cache_size"`

	// Remappings 名称重映射规则，按顺序匹配
	Remappings []RemapConfig `json:"remappings,omitempty"`
}

// DefaultNodeConfig 返回默认节点配置
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		EnableLogSink:    true,
		ResolveCacheSize: 128,
	}
}

// Validate 验证节点配置
func (c NodeConfig) Validate() error {
	if c.ResolveCacheSize < 0 {
		return errors.New("resolve cache size must not be negative")
	}
	for i, r := range c.Remappings {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("remappings[%d]: %w", i, err)
		}
	}
	return nil
}
