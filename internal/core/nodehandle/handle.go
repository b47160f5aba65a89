// Package nodehandle 实现与共享上下文绑定生命周期的节点句柄
//
// Handle 同时持有底层节点句柄、共享上下文引用和全局串行锁。
// 最后一个所有者释放时按固定顺序终结：
//
//  1. 获取全局串行锁
//  2. 调用中间件终结底层句柄（失败只记录日志）
//  3. 丢弃底层句柄
//  4. 释放锁后才释放共享上下文引用
//
// 因此在底层句柄终结期间，共享上下文的引用计数中始终包含本句柄的一份。
package nodehandle

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

var logger = log.Logger("core/nodehandle")

var (
	// ErrNilContext 共享上下文为空
	ErrNilContext = errors.New("nodehandle: nil context")

	// ErrNilHandle 底层句柄为空
	ErrNilHandle = errors.New("nodehandle: nil raw handle")

	// ErrNilLock 全局串行锁为空
	ErrNilLock = errors.New("nodehandle: nil global lock")

	// ErrInert 句柄已被移出或释放
	ErrInert = errors.New("nodehandle: handle is inert")
)

// Option 句柄选项
type Option func(*record)

// WithFinalizeErrorHandler 设置底层句柄终结失败时的回调
//
// 回调在全局串行锁之外执行。
func WithFinalizeErrorHandler(fn func(error)) Option {
	return func(r *record) {
		r.onFinalizeErr = fn
	}
}

// record 所有者共享的句柄记录
type record struct {
	refs atomic.Int64

	ctx  *rtcontext.Context
	lock *sync.Mutex
	mw   interfaces.Middleware
	raw  interfaces.NodeHandle

	onFinalizeErr func(error)
}

// Handle 节点句柄的一个所有者
//
// 每个所有者必须且只能 Release 一次；Share 创建新的所有者，
// Move 把所有权转移给新的所有者并使原所有者失效。
// Handle 不可复制。
type Handle struct {
	rec atomic.Pointer[record]
}

// Make 包装已初始化的底层句柄
//
// raw 必须已经绑定到 ctx。成功时持有 ctx 的一个引用，
// 失败时不获取任何引用，底层句柄仍由调用方负责终结。
func Make(ctx *rtcontext.Context, lock *sync.Mutex, mw interfaces.Middleware, raw interfaces.NodeHandle, opts ...Option) (*Handle, error) {
	switch {
	case ctx == nil:
		return nil, ErrNilContext
	case lock == nil:
		return nil, ErrNilLock
	case raw == nil:
		return nil, ErrNilHandle
	}
	if mw == nil {
		mw = ctx.Middleware()
	}
	if err := ctx.Retain(); err != nil {
		return nil, err
	}

	r := &record{
		ctx:  ctx,
		lock: lock,
		mw:   mw,
		raw:  raw,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.refs.Store(1)

	h := &Handle{}
	h.rec.Store(r)
	return h, nil
}

// Raw 返回底层句柄，失效时返回 nil
//
// 不转移所有权，调用方不得在所有者释放后继续使用。
func (h *Handle) Raw() interfaces.NodeHandle {
	if r := h.rec.Load(); r != nil {
		return r.raw
	}
	return nil
}

// Context 返回共享上下文，失效时返回 nil
func (h *Handle) Context() *rtcontext.Context {
	if r := h.rec.Load(); r != nil {
		return r.ctx
	}
	return nil
}

// Valid 当前所有者是否仍持有句柄
func (h *Handle) Valid() bool {
	return h.rec.Load() != nil
}

// Owners 返回共享该句柄的所有者数量，失效时为 0
func (h *Handle) Owners() int64 {
	if r := h.rec.Load(); r != nil {
		return r.refs.Load()
	}
	return 0
}

// Share 创建一个新的所有者
//
// 与同一所有者上的 Release 并发时，所有者计数一旦归零就不会再增加，
// 此时返回 ErrInert，已终结的记录不会被复活。
func (h *Handle) Share() (*Handle, error) {
	r := h.rec.Load()
	if r == nil {
		return nil, ErrInert
	}
	for {
		n := r.refs.Load()
		if n <= 0 {
			return nil, ErrInert
		}
		if r.refs.CompareAndSwap(n, n+1) {
			break
		}
	}

	owner := &Handle{}
	owner.rec.Store(r)
	return owner, nil
}

// Move 把所有权转移给新的所有者
//
// 原所有者随即失效，对其 Release 不再有任何效果。
func (h *Handle) Move() *Handle {
	n := &Handle{}
	n.rec.Store(h.rec.Swap(nil))
	return n
}

// Release 释放当前所有者
//
// 最后一个所有者释放时终结底层句柄。重复调用无效果。
func (h *Handle) Release() {
	r := h.rec.Swap(nil)
	if r == nil {
		return
	}
	if r.refs.Add(-1) == 0 {
		r.finalize()
	}
}

func (r *record) finalize() {
	r.lock.Lock()
	err := r.mw.FiniNode(r.raw)
	r.lock.Unlock()

	if err != nil {
		logger.Error("终结节点句柄失败", "handle", r.raw.HandleID(), "error", err)
		if r.onFinalizeErr != nil {
			r.onFinalizeErr(err)
		}
	}

	r.raw = nil
	r.ctx.Release()
}
