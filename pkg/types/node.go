package types

import "fmt"

// ============================================================================
//                              回调组类型
// ============================================================================

// CallbackGroupType 回调组类型
//
// 决定调度器能否并发执行同一组内的工作项。
type CallbackGroupType int

const (
	// CallbackGroupMutuallyExclusive 互斥：组内工作项串行执行
	CallbackGroupMutuallyExclusive CallbackGroupType = iota

	// CallbackGroupReentrant 可重入：组内工作项可并发执行
	CallbackGroupReentrant
)

// String 返回类型的字符串表示
func (t CallbackGroupType) String() string {
	switch t {
	case CallbackGroupMutuallyExclusive:
		return "mutually_exclusive"
	case CallbackGroupReentrant:
		return "reentrant"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ============================================================================
//                              重映射规则
// ============================================================================

// RemapKind 重映射规则作用范围
type RemapKind int

const (
	// RemapAny 同时作用于话题和服务
	RemapAny RemapKind = iota
	// RemapTopic 仅作用于话题
	RemapTopic
	// RemapService 仅作用于服务
	RemapService
)

// String 返回作用范围的字符串表示
func (k RemapKind) String() string {
	switch k {
	case RemapAny:
		return "any"
	case RemapTopic:
		return "topic"
	case RemapService:
		return "service"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Applies 规则是否作用于指定类别的名称
func (k RemapKind) Applies(isService bool) bool {
	switch k {
	case RemapAny:
		return true
	case RemapService:
		return isService
	case RemapTopic:
		return !isService
	default:
		return false
	}
}

// RemapRule 名称重映射规则
//
// From 与 To 均可使用相对名称，匹配前会按节点的命名空间展开。
type RemapRule struct {
	Kind RemapKind `json:"kind"`
	From string    `json:"from"`
	To   string    `json:"to"`
}

// ============================================================================
//                              选项
// ============================================================================

// NodeOptions 节点句柄初始化选项
//
// 由中间件协作方解释，节点核心只负责透传。
type NodeOptions struct {
	// Remappings 名称重映射规则，按顺序匹配，首条命中生效
	Remappings []RemapRule

	// EnableLogSink 是否为节点挂载日志汇聚点
	EnableLogSink bool
}

// DefaultNodeOptions 返回默认节点选项
func DefaultNodeOptions() NodeOptions {
	return NodeOptions{
		EnableLogSink: true,
	}
}

// ContextOptions 运行时上下文初始化选项
type ContextOptions struct {
	// DomainID 通信域 ID，不同域之间的节点互不可见
	DomainID uint32

	// InstanceName 运行时实例名称，仅用于诊断
	InstanceName string
}

// DefaultContextOptions 返回默认上下文选项
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		InstanceName: "default",
	}
}
