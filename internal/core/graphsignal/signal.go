// Package graphsignal 实现通信图变化通知信号
//
// Signal 包装中间件守护条件，附加有效位和专用互斥锁：
//   - 创建后处于无效状态，节点构造完成时由 Validate 置为有效
//   - Close 在锁内置为无效并终结守护条件，之后永远不会再次有效
//   - 调度器通过 AcquireLock 获取作用域锁后再使用守护条件，
//     从而与并发的 Close 互斥
package graphsignal

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

var logger = log.Logger("core/graphsignal")

var (
	// ErrInvalid 信号未就绪或已失效
	ErrInvalid = errors.New("graphsignal: signal is not valid")

	// ErrFinalized 守护条件已终结
	ErrFinalized = errors.New("graphsignal: guard condition already finalized")
)

// Signal 通信图变化信号
type Signal struct {
	mw interfaces.Middleware

	mu          sync.Mutex
	gc          interfaces.GuardCondition
	valid       bool
	invalidated bool
	finalized   bool

	triggerLog rate.Sometimes
}

// New 在运行时上创建守护条件
//
// 返回的信号处于无效状态。
func New(mw interfaces.Middleware, rt interfaces.RuntimeHandle) (*Signal, error) {
	gc, err := mw.InitGuardCondition(rt)
	if err != nil {
		return nil, err
	}
	return &Signal{
		mw:         mw,
		gc:         gc,
		triggerLog: rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}, nil
}

// Validate 将信号置为有效
//
// 信号一旦失效，Validate 不再生效。
func (s *Signal) Validate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invalidated || s.finalized {
		return
	}
	s.valid = true
}

// IsValid 信号当前是否有效
func (s *Signal) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid
}

// Get 返回守护条件，信号无效时返回 false
//
// 返回后不持有锁；需要与 Close 互斥的调用方应使用 AcquireLock。
func (s *Signal) Get() (interfaces.GuardCondition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.valid {
		return nil, false
	}
	return s.gc, true
}

// ============================================================================
//                              作用域锁
// ============================================================================

// Lock 信号的作用域锁
//
// 持有期间信号不会失效。必须调用 Unlock 释放；释放后
// GuardCondition 返回 false，Trigger 返回 ErrInvalid。
type Lock struct {
	s        *Signal
	once     sync.Once
	released atomic.Bool
}

// AcquireLock 获取作用域锁
func (s *Signal) AcquireLock() *Lock {
	s.mu.Lock()
	return &Lock{s: s}
}

// GuardCondition 在持锁状态下返回守护条件，信号无效时返回 false
func (l *Lock) GuardCondition() (interfaces.GuardCondition, bool) {
	if l.released.Load() || !l.s.valid {
		return nil, false
	}
	return l.s.gc, true
}

// Trigger 在持锁状态下触发守护条件
func (l *Lock) Trigger() error {
	if l.released.Load() {
		return ErrInvalid
	}
	return l.s.triggerLocked()
}

// Unlock 释放作用域锁，重复调用无效果
func (l *Lock) Unlock() {
	l.once.Do(func() {
		l.released.Store(true)
		l.s.mu.Unlock()
	})
}

// ============================================================================
//                              触发与终结
// ============================================================================

// Trigger 触发守护条件，唤醒等待图变化的调度器
func (s *Signal) Trigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggerLocked()
}

func (s *Signal) triggerLocked() error {
	if !s.valid {
		return ErrInvalid
	}
	if err := s.gc.Trigger(); err != nil {
		s.triggerLog.Do(func() {
			logger.Warn("触发图变化守护条件失败", "error", err)
		})
		return err
	}
	return nil
}

// Finalize 终结守护条件但不改变有效位
//
// 用于构造失败的回滚路径：此时信号从未被置为有效。
func (s *Signal) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizeLocked()
}

func (s *Signal) finalizeLocked() error {
	if s.finalized {
		return ErrFinalized
	}
	s.finalized = true
	return s.mw.FiniGuardCondition(s.gc)
}

// Close 在锁内将信号置为失效并终结守护条件
//
// 终结失败只记录日志并返回，调用方不应将其视为致命错误。
func (s *Signal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valid = false
	s.invalidated = true

	if s.finalized {
		return nil
	}
	if err := s.finalizeLocked(); err != nil {
		logger.Error("终结图变化守护条件失败", "error", err)
		return err
	}
	return nil
}
