// Package lifecycle 提供节点核心的构造/终结阶段协调器
//
// 阶段定义：
//
//	Building → GuardConditionReady → HandleReady → Ready → ShuttingDown → Finalized
//	Building / GuardConditionReady / HandleReady → Failed（终态）
//
// 本模块的核心职责：
//  1. 追踪当前阶段，只允许向前推进
//  2. 提供阶段 gate（WaitFor 等待特定阶段完成）
//  3. 记录每个阶段的到达时间
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

var logger = log.Logger("core/lifecycle")

// ============================================================================
//                              阶段定义
// ============================================================================

// Phase 节点核心阶段
type Phase int

const (
	// PhaseBuilding 正在构造
	PhaseBuilding Phase = iota

	// PhaseGuardConditionReady 图变化守护条件已创建
	PhaseGuardConditionReady

	// PhaseHandleReady 底层节点句柄已创建并绑定上下文
	PhaseHandleReady

	// PhaseReady 构造完成
	PhaseReady

	// PhaseShuttingDown 正在终结
	PhaseShuttingDown

	// PhaseFinalized 已终结
	PhaseFinalized

	// PhaseFailed 构造失败（终态）
	PhaseFailed
)

// String 返回阶段字符串表示
func (p Phase) String() string {
	switch p {
	case PhaseBuilding:
		return "building"
	case PhaseGuardConditionReady:
		return "guard_condition_ready"
	case PhaseHandleReady:
		return "handle_ready"
	case PhaseReady:
		return "ready"
	case PhaseShuttingDown:
		return "shutting_down"
	case PhaseFinalized:
		return "finalized"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", p)
	}
}

var (
	// ErrBackwards 阶段不能后退
	ErrBackwards = errors.New("lifecycle: cannot advance backwards")

	// ErrFailed 构造已失败
	ErrFailed = errors.New("lifecycle: construction failed")

	// ErrInvalidPhase 阶段无效
	ErrInvalidPhase = errors.New("lifecycle: invalid phase")
)

// ============================================================================
//                              协调器
// ============================================================================

// Option 协调器选项
type Option func(*Coordinator)

// WithClock 设置时钟，测试中可注入 clock.NewMock()
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) {
		co.clock = c
	}
}

// WithName 设置日志中使用的名称
func WithName(name string) Option {
	return func(co *Coordinator) {
		co.name = name
	}
}

// Coordinator 阶段协调器
type Coordinator struct {
	mu sync.RWMutex

	name  string
	clock clock.Clock

	phase   Phase
	failure error

	// key: 阶段, value: 关闭表示该阶段已到达
	signals map[Phase]chan struct{}
	stamps  map[Phase]time.Time

	onPhaseChange []func(old, new Phase)
}

// NewCoordinator 创建协调器，初始阶段为 PhaseBuilding
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:   clock.New(),
		phase:   PhaseBuilding,
		signals: make(map[Phase]chan struct{}),
		stamps:  make(map[Phase]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}

	for p := PhaseBuilding; p <= PhaseFailed; p++ {
		c.signals[p] = make(chan struct{})
	}
	close(c.signals[PhaseBuilding])
	c.stamps[PhaseBuilding] = c.clock.Now()
	return c
}

// Phase 返回当前阶段
func (c *Coordinator) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// OnPhaseChange 注册阶段变更回调
//
// 回调在锁外同步执行。
func (c *Coordinator) OnPhaseChange(fn func(old, new Phase)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPhaseChange = append(c.onPhaseChange, fn)
}

// AdvanceTo 推进到指定阶段
//
// 规则：
//   - 只能向前推进，中间阶段的信号一并完成
//   - 不能通过 AdvanceTo 进入 PhaseFailed，应使用 Fail
//   - 已失败后不能再推进
func (c *Coordinator) AdvanceTo(target Phase) error {
	if target < PhaseBuilding || target >= PhaseFailed {
		return fmt.Errorf("%w: %s", ErrInvalidPhase, target)
	}

	c.mu.Lock()
	if c.phase == PhaseFailed {
		c.mu.Unlock()
		return ErrFailed
	}
	if target < c.phase {
		cur := c.phase
		c.mu.Unlock()
		return fmt.Errorf("%w: current=%s target=%s", ErrBackwards, cur, target)
	}
	if target == c.phase {
		c.mu.Unlock()
		return nil
	}

	old := c.phase
	now := c.clock.Now()
	for p := old + 1; p <= target; p++ {
		close(c.signals[p])
		c.stamps[p] = now
	}
	c.phase = target
	callbacks := append([]func(old, new Phase){}, c.onPhaseChange...)
	c.mu.Unlock()

	logger.Debug("节点核心阶段推进", "node", c.name, "from", old.String(), "to", target.String())
	for _, cb := range callbacks {
		cb(old, target)
	}
	return nil
}

// Fail 标记构造失败
//
// 只有在 PhaseReady 之前才能失败。已失败时返回 nil 且保留首个原因。
func (c *Coordinator) Fail(cause error) error {
	if cause == nil {
		cause = errors.New("unspecified failure")
	}

	c.mu.Lock()
	if c.phase == PhaseFailed {
		c.mu.Unlock()
		return nil
	}
	if c.phase >= PhaseReady {
		cur := c.phase
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot fail from %s", ErrBackwards, cur)
	}

	old := c.phase
	c.phase = PhaseFailed
	c.failure = cause
	c.stamps[PhaseFailed] = c.clock.Now()
	close(c.signals[PhaseFailed])
	callbacks := append([]func(old, new Phase){}, c.onPhaseChange...)
	c.mu.Unlock()

	logger.Debug("节点核心构造失败", "node", c.name, "from", old.String(), "error", cause)
	for _, cb := range callbacks {
		cb(old, PhaseFailed)
	}
	return nil
}

// Err 返回失败原因，未失败时为 nil
func (c *Coordinator) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failure
}

// WaitFor 等待指定阶段到达
//
// 构造失败时返回包装了失败原因的 ErrFailed（等待 PhaseFailed 本身除外）。
func (c *Coordinator) WaitFor(ctx context.Context, phase Phase) error {
	c.mu.RLock()
	ch, ok := c.signals[phase]
	failed := c.signals[PhaseFailed]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidPhase, phase)
	}

	if phase == PhaseFailed {
		select {
		case <-ch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case <-ch:
		return nil
	case <-failed:
		// 失败前已到达的阶段仍视为完成
		select {
		case <-ch:
			return nil
		default:
		}
		return fmt.Errorf("%w: %w", ErrFailed, c.Err())
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsCompleted 指定阶段是否已到达
func (c *Coordinator) IsCompleted(phase Phase) bool {
	c.mu.RLock()
	ch := c.signals[phase]
	c.mu.RUnlock()

	if ch == nil {
		return false
	}
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// Timestamp 返回阶段到达时间
func (c *Coordinator) Timestamp(phase Phase) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts, ok := c.stamps[phase]
	return ts, ok
}

// Elapsed 返回两个已到达阶段之间的耗时
func (c *Coordinator) Elapsed(from, to Phase) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok1 := c.stamps[from]
	b, ok2 := c.stamps[to]
	if !ok1 || !ok2 {
		return 0, false
	}
	return b.Sub(a), true
}
