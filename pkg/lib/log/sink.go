package log

import (
	"fmt"
	"sort"
	"sync"
)

// ============================================================================
//                              全局串行锁
// ============================================================================

// globalMutex 进程级串行锁
//
// 节点句柄的初始化与终结会修改日志汇聚点注册表，
// 而注册表同时被日志子系统读取，因此两者共用此锁。
var globalMutex = &sync.Mutex{}

// GlobalMutex 返回进程级串行锁
//
// 该锁不可重入：持锁期间调用的协作方只能使用 ...Locked 系列函数。
func GlobalMutex() *sync.Mutex {
	return globalMutex
}

// ============================================================================
//                              节点日志汇聚点
// ============================================================================

// NodeSink 节点日志汇聚点
//
// 每个挂载了汇聚点的节点以完整限定名注册一次；同名节点共享引用计数。
type NodeSink struct {
	Name string
	refs int
}

// sinks 以完整限定名为键的汇聚点注册表，由 globalMutex 保护
var sinks = map[string]*NodeSink{}

// AttachNodeSinkLocked 为节点挂载日志汇聚点
//
// 调用方必须持有 GlobalMutex。
func AttachNodeSinkLocked(fqn string) error {
	if fqn == "" {
		return fmt.Errorf("log: empty node name for sink")
	}
	s, ok := sinks[fqn]
	if !ok {
		s = &NodeSink{Name: fqn}
		sinks[fqn] = s
	}
	s.refs++
	return nil
}

// DetachNodeSinkLocked 卸载节点日志汇聚点
//
// 调用方必须持有 GlobalMutex。
func DetachNodeSinkLocked(fqn string) error {
	s, ok := sinks[fqn]
	if !ok {
		return fmt.Errorf("log: no sink attached for node %q", fqn)
	}
	s.refs--
	if s.refs <= 0 {
		delete(sinks, fqn)
	}
	return nil
}

// NodeSinks 返回当前挂载了汇聚点的节点名（已排序）
func NodeSinks() []string {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
