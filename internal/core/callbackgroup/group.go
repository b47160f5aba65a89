// Package callbackgroup 实现回调组及其弱引用注册表
//
// 回调组由应用和调度器强引用持有；注册表只保存 weak.Pointer，
// 不延长回调组的生命周期。外部所有者全部释放后，
// 对应条目在下一次 GC 后失效，Contains 与 ForEach 将其视为不存在。
package callbackgroup

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dep2p/go-nodecore/pkg/types"
)

// Group 回调组
type Group struct {
	id      uuid.UUID
	typ     types.CallbackGroupType
	autoAdd bool

	// associated 是否已被某个调度器关联
	associated atomic.Bool
}

// New 创建回调组
func New(typ types.CallbackGroupType, autoAddToExecutor bool) *Group {
	return &Group{
		id:      uuid.New(),
		typ:     typ,
		autoAdd: autoAddToExecutor,
	}
}

// ID 返回回调组 ID
func (g *Group) ID() uuid.UUID {
	return g.id
}

// Type 返回回调组类型
func (g *Group) Type() types.CallbackGroupType {
	return g.typ
}

// AutomaticallyAddToExecutor 调度器关联节点时是否自动关联本组
func (g *Group) AutomaticallyAddToExecutor() bool {
	return g.autoAdd
}

// AssociatedWithExecutor 返回调度器关联标志
//
// 调度器使用 CompareAndSwap(false, true) 抢占关联，
// 解除关联时 Store(false)。
func (g *Group) AssociatedWithExecutor() *atomic.Bool {
	return &g.associated
}

// String 返回回调组的可读表示
func (g *Group) String() string {
	return g.typ.String() + ":" + g.id.String()[:8]
}
