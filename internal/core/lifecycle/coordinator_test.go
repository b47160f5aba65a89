package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_AdvanceForward(t *testing.T) {
	mock := clock.NewMock()
	c := NewCoordinator(WithClock(mock), WithName("/talker"))
	assert.Equal(t, PhaseBuilding, c.Phase())
	assert.True(t, c.IsCompleted(PhaseBuilding))

	var changes []string
	c.OnPhaseChange(func(old, new Phase) {
		changes = append(changes, old.String()+"->"+new.String())
	})

	mock.Add(5 * time.Millisecond)
	require.NoError(t, c.AdvanceTo(PhaseGuardConditionReady))
	mock.Add(10 * time.Millisecond)
	require.NoError(t, c.AdvanceTo(PhaseReady))

	assert.True(t, c.IsCompleted(PhaseHandleReady), "中间阶段一并完成")
	assert.Equal(t, []string{
		"building->guard_condition_ready",
		"guard_condition_ready->ready",
	}, changes)

	elapsed, ok := c.Elapsed(PhaseBuilding, PhaseReady)
	require.True(t, ok)
	assert.Equal(t, 15*time.Millisecond, elapsed)

	require.NoError(t, c.AdvanceTo(PhaseReady), "停留在当前阶段")
	assert.ErrorIs(t, c.AdvanceTo(PhaseHandleReady), ErrBackwards)
	assert.ErrorIs(t, c.AdvanceTo(PhaseFailed), ErrInvalidPhase)
}

func TestCoordinator_Fail(t *testing.T) {
	c := NewCoordinator(WithClock(clock.NewMock()))
	require.NoError(t, c.AdvanceTo(PhaseGuardConditionReady))

	cause := errors.New("handle init failed")
	require.NoError(t, c.Fail(cause))
	require.NoError(t, c.Fail(errors.New("second")))

	assert.Equal(t, PhaseFailed, c.Phase())
	assert.Equal(t, cause, c.Err())
	assert.ErrorIs(t, c.AdvanceTo(PhaseReady), ErrFailed)

	_, ok := c.Timestamp(PhaseFailed)
	assert.True(t, ok)
	_, ok = c.Timestamp(PhaseReady)
	assert.False(t, ok)
}

func TestCoordinator_FailAfterReady(t *testing.T) {
	c := NewCoordinator()
	require.NoError(t, c.AdvanceTo(PhaseReady))
	assert.ErrorIs(t, c.Fail(errors.New("late")), ErrBackwards)
	assert.Equal(t, PhaseReady, c.Phase())
}

func TestCoordinator_WaitFor(t *testing.T) {
	c := NewCoordinator()

	done := make(chan error, 1)
	go func() {
		done <- c.WaitFor(context.Background(), PhaseReady)
	}()

	require.NoError(t, c.AdvanceTo(PhaseReady))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitFor 应在阶段到达后返回")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.WaitFor(ctx, PhaseFinalized), context.DeadlineExceeded)
	assert.ErrorIs(t, c.WaitFor(ctx, Phase(42)), ErrInvalidPhase)
}

func TestCoordinator_WaitForFailed(t *testing.T) {
	c := NewCoordinator()
	require.NoError(t, c.AdvanceTo(PhaseGuardConditionReady))

	cause := errors.New("bad name")
	require.NoError(t, c.Fail(cause))

	err := c.WaitFor(context.Background(), PhaseReady)
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, cause)

	assert.NoError(t, c.WaitFor(context.Background(), PhaseGuardConditionReady), "失败前已到达的阶段")
	assert.NoError(t, c.WaitFor(context.Background(), PhaseFailed))
}
