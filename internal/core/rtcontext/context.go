// Package rtcontext 实现进程级共享运行时上下文
//
// Context 持有中间件运行时句柄，采用引用计数：
//   - New 返回时引用计数为 1，由创建者持有
//   - 每个存活的节点句柄通过 Retain 额外持有一个引用
//   - 引用计数归零时终结运行时句柄
//
// Shutdown 只是关闭上下文（不再接受新节点）并执行关闭回调，
// 运行时句柄直到最后一个引用释放才会终结，因此已有节点的终结始终安全。
package rtcontext

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
	"github.com/dep2p/go-nodecore/pkg/types"
)

var logger = log.Logger("core/rtcontext")

var (
	// ErrNilMiddleware 中间件为空
	ErrNilMiddleware = errors.New("rtcontext: nil middleware")

	// ErrFinalized 上下文引用计数已归零
	ErrFinalized = errors.New("rtcontext: context finalized")

	// ErrShutdown 上下文已关闭
	ErrShutdown = errors.New("rtcontext: context shut down")
)

// ShutdownCallback 关闭回调
type ShutdownCallback func(reason string) error

// Context 共享运行时上下文
type Context struct {
	mw   interfaces.Middleware
	rt   interfaces.RuntimeHandle
	opts types.ContextOptions

	refs atomic.Int64

	mu        sync.Mutex
	shutdown  bool
	reason    string
	callbacks []ShutdownCallback

	closeOnce sync.Once
	finiErr   error
	onFini    []func(error)
}

// New 初始化运行时并创建上下文
func New(mw interfaces.Middleware, opts types.ContextOptions) (*Context, error) {
	if mw == nil {
		return nil, ErrNilMiddleware
	}
	rt, err := mw.InitRuntime(opts)
	if err != nil {
		return nil, fmt.Errorf("init runtime: %w", err)
	}

	c := &Context{
		mw:   mw,
		rt:   rt,
		opts: opts,
	}
	c.refs.Store(1)

	logger.Debug("共享上下文已创建",
		"instance", log.TruncateID(rt.InstanceID(), 8),
		"domain", opts.DomainID)
	return c, nil
}

// Middleware 返回中间件协作方
func (c *Context) Middleware() interfaces.Middleware {
	return c.mw
}

// Runtime 返回运行时句柄
func (c *Context) Runtime() interfaces.RuntimeHandle {
	return c.rt
}

// Options 返回上下文选项
func (c *Context) Options() types.ContextOptions {
	return c.opts
}

// ============================================================================
//                              引用计数
// ============================================================================

// Retain 增加一个引用
//
// 引用计数已归零时返回 ErrFinalized，上下文不会被复活。
func (c *Context) Retain() error {
	for {
		n := c.refs.Load()
		if n <= 0 {
			return ErrFinalized
		}
		if c.refs.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// Release 释放一个引用，最后一个引用释放时终结运行时
func (c *Context) Release() {
	n := c.refs.Add(-1)
	switch {
	case n == 0:
		c.finalize()
	case n < 0:
		logger.Error("共享上下文引用计数下溢", "refs", n)
	}
}

// RefCount 返回当前引用计数
func (c *Context) RefCount() int64 {
	return c.refs.Load()
}

// OnFinalize 注册运行时终结后的通知
func (c *Context) OnFinalize(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFini = append(c.onFini, fn)
}

func (c *Context) finalize() {
	c.mu.Lock()
	hooks := append([]func(error){}, c.onFini...)
	c.mu.Unlock()

	err := c.mw.FiniRuntime(c.rt)
	if err != nil {
		logger.Error("终结运行时失败", "instance", log.TruncateID(c.rt.InstanceID(), 8), "error", err)
	}
	c.mu.Lock()
	c.finiErr = err
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(err)
	}
	logger.Debug("共享上下文已终结", "instance", log.TruncateID(c.rt.InstanceID(), 8))
}

// ============================================================================
//                              关闭
// ============================================================================

// IsValid 上下文是否仍可用于创建节点
func (c *Context) IsValid() bool {
	c.mu.Lock()
	shutdown := c.shutdown
	c.mu.Unlock()
	return !shutdown && c.refs.Load() > 0 && c.rt.IsValid()
}

// OnShutdown 注册关闭回调
//
// 上下文已关闭时立即以关闭原因执行回调。
func (c *Context) OnShutdown(cb ShutdownCallback) error {
	c.mu.Lock()
	if c.shutdown {
		reason := c.reason
		c.mu.Unlock()
		return cb(reason)
	}
	c.callbacks = append(c.callbacks, cb)
	c.mu.Unlock()
	return nil
}

// Shutdown 关闭上下文并按注册顺序执行关闭回调
//
// 重复调用返回 ErrShutdown。所有回调都会执行，错误合并返回。
func (c *Context) Shutdown(reason string) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return ErrShutdown
	}
	c.shutdown = true
	c.reason = reason
	callbacks := c.callbacks
	c.callbacks = nil
	c.mu.Unlock()

	logger.Info("共享上下文关闭", "reason", reason, "callbacks", len(callbacks))

	var err error
	for _, cb := range callbacks {
		err = multierr.Append(err, cb(reason))
	}
	return err
}

// ShutdownReason 返回关闭原因，未关闭时为空
func (c *Context) ShutdownReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Close 释放创建者持有的引用
//
// 多次调用只释放一次。仍有节点持有引用时运行时不会立即终结。
func (c *Context) Close() error {
	c.closeOnce.Do(c.Release)
	return nil
}

// FinalizeError 返回运行时终结时的错误（未终结或成功时为 nil）
func (c *Context) FinalizeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finiErr
}
