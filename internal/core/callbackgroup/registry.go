package callbackgroup

import (
	"sync"
	"weak"

	"github.com/dep2p/go-nodecore/pkg/types"
)

// Registry 回调组弱引用注册表
//
// 所有操作由同一把互斥锁串行化。失效条目在扫描时跳过，
// 只有在插入触发切片扩容前才会被清理。
type Registry struct {
	mu      sync.Mutex
	entries []weak.Pointer[Group]
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{}
}

// Create 创建回调组并登记弱引用，返回唯一的强引用
func (r *Registry) Create(typ types.CallbackGroupType, autoAddToExecutor bool) *Group {
	g := New(typ, autoAddToExecutor)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) == cap(r.entries) {
		r.pruneLocked()
	}
	r.entries = append(r.entries, weak.Make(g))
	return g
}

// Contains 按身份判断回调组是否登记在本注册表中
func (r *Registry) Contains(g *Group) bool {
	if g == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, wp := range r.entries {
		if wp.Value() == g {
			return true
		}
	}
	return false
}

// ForEach 按插入顺序访问仍存活的回调组
//
// visitor 在持锁状态下执行，不得回调本注册表。
func (r *Registry) ForEach(visitor func(*Group)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, wp := range r.entries {
		if g := wp.Value(); g != nil {
			visitor(g)
		}
	}
}

// Len 返回仍存活的回调组数量
func (r *Registry) Len() int {
	n := 0
	r.ForEach(func(*Group) { n++ })
	return n
}

// Prune 清理失效条目，返回清理数量
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pruneLocked()
}

func (r *Registry) pruneLocked() int {
	live := r.entries[:0]
	for _, wp := range r.entries {
		if wp.Value() != nil {
			live = append(live, wp)
		}
	}
	removed := len(r.entries) - len(live)
	clear(r.entries[len(live):])
	r.entries = live
	return removed
}
