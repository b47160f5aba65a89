package config

import "errors"

// ContextConfig 共享上下文配置
type ContextConfig struct {
	// DomainID 通信域 ID，不同域之间的节点互不可见
	DomainID uint32 `json:"domain_id"`

	// InstanceName 运行时实例名称，仅用于诊断
	InstanceName string `json:"instance_name"`
}

// DefaultContextConfig 返回默认上下文配置
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		DomainID:     0,
		InstanceName: "default",
	}
}

// Validate 验证上下文配置
func (c ContextConfig) Validate() error {
	if c.InstanceName == "" {
		return errors.New("instance name must not be empty")
	}
	return nil
}
