package types

import (
	"bytes"
	"sync"
)

// ============================================================================
//                              缓冲区分配器
// ============================================================================

// Allocator 协作方输出缓冲区的分配策略
//
// 协作方通过 Allocate 获取输出缓冲区并交给调用方；调用方读取结果后
// 必须调用 Deallocate 归还，错误路径也不例外。
type Allocator interface {
	// Allocate 获取至少 sizeHint 字节容量的空缓冲区
	Allocate(sizeHint int) *bytes.Buffer

	// Deallocate 归还缓冲区，归还后不得再使用
	Deallocate(buf *bytes.Buffer)
}

// maxPooledBufferSize 超过该容量的缓冲区不回收
const maxPooledBufferSize = 64 << 10

// poolAllocator 基于 sync.Pool 的分配器
type poolAllocator struct {
	pool sync.Pool
}

var defaultAllocator = &poolAllocator{
	pool: sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	},
}

// DefaultAllocator 返回进程级默认分配器
func DefaultAllocator() Allocator {
	return defaultAllocator
}

// Allocate 实现 Allocator
func (a *poolAllocator) Allocate(sizeHint int) *bytes.Buffer {
	buf := a.pool.Get().(*bytes.Buffer)
	buf.Reset()
	if sizeHint > 0 {
		buf.Grow(sizeHint)
	}
	return buf
}

// Deallocate 实现 Allocator
func (a *poolAllocator) Deallocate(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	a.pool.Put(buf)
}
