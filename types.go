package nodecore

import (
	"github.com/dep2p/go-nodecore/internal/core/callbackgroup"
	"github.com/dep2p/go-nodecore/internal/core/lifecycle"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

// CallbackGroup 回调组
//
// 节点只弱引用回调组：调用方丢弃最后一个引用后，该组从节点中消失。
type CallbackGroup = callbackgroup.Group

// CallbackGroupType 回调组类型
type CallbackGroupType = types.CallbackGroupType

// 回调组类型
const (
	// MutuallyExclusive 组内工作项串行执行
	MutuallyExclusive = types.CallbackGroupMutuallyExclusive

	// Reentrant 组内工作项可并发执行
	Reentrant = types.CallbackGroupReentrant
)

// GuardCondition 图变化唤醒原语
type GuardCondition = interfaces.GuardCondition

// Middleware 底层中间件协作方
type Middleware = interfaces.Middleware

// Phase 节点核心生命周期阶段
type Phase = lifecycle.Phase

// RemapKind 重映射规则作用范围
type RemapKind = types.RemapKind

// 重映射作用范围
const (
	RemapAny     = types.RemapAny
	RemapTopic   = types.RemapTopic
	RemapService = types.RemapService
)

// Status 协作方状态码
type Status = types.Status
