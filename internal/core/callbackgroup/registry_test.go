package callbackgroup

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-nodecore/pkg/types"
)

func TestGroup_Attributes(t *testing.T) {
	g := New(types.CallbackGroupReentrant, false)
	assert.Equal(t, types.CallbackGroupReentrant, g.Type())
	assert.False(t, g.AutomaticallyAddToExecutor())
	assert.NotEqual(t, New(types.CallbackGroupReentrant, false).ID(), g.ID())
	assert.Contains(t, g.String(), "reentrant:")

	flag := g.AssociatedWithExecutor()
	assert.True(t, flag.CompareAndSwap(false, true))
	assert.False(t, g.AssociatedWithExecutor().CompareAndSwap(false, true), "已被关联")
	flag.Store(false)
	assert.False(t, g.AssociatedWithExecutor().Load())
}

func TestRegistry_Contains(t *testing.T) {
	r := NewRegistry()
	g := r.Create(types.CallbackGroupMutuallyExclusive, true)

	assert.True(t, r.Contains(g))
	assert.False(t, r.Contains(New(types.CallbackGroupMutuallyExclusive, true)), "按身份匹配")
	assert.False(t, r.Contains(nil))
	runtime.KeepAlive(g)
}

// 外部强引用全部释放后，注册表不再报告该回调组
func TestRegistry_DroppedGroupIsAbsent(t *testing.T) {
	r := NewRegistry()
	kept := r.Create(types.CallbackGroupMutuallyExclusive, true)
	_ = r.Create(types.CallbackGroupReentrant, true)

	require.Eventually(t, func() bool {
		runtime.GC()
		return r.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, r.Contains(kept))
	runtime.KeepAlive(kept)
}

// 创建 3 个回调组并丢弃其中 2 个，ForEach 只访问存活的一个
func TestRegistry_ForEachSkipsDropped(t *testing.T) {
	r := NewRegistry()

	groups := []*Group{
		r.Create(types.CallbackGroupMutuallyExclusive, true),
		r.Create(types.CallbackGroupReentrant, true),
		r.Create(types.CallbackGroupMutuallyExclusive, false),
	}
	survivor := groups[1]
	groups = nil

	require.Eventually(t, func() bool {
		runtime.GC()
		var visited []*Group
		r.ForEach(func(g *Group) { visited = append(visited, g) })
		return len(visited) == 1 && visited[0] == survivor
	}, 2*time.Second, 10*time.Millisecond)

	runtime.KeepAlive(survivor)
}

func TestRegistry_InsertionOrder(t *testing.T) {
	r := NewRegistry()
	a := r.Create(types.CallbackGroupMutuallyExclusive, true)
	b := r.Create(types.CallbackGroupReentrant, true)
	c := r.Create(types.CallbackGroupMutuallyExclusive, true)

	var visited []*Group
	r.ForEach(func(g *Group) { visited = append(visited, g) })
	assert.Equal(t, []*Group{a, b, c}, visited)
}

func TestRegistry_Prune(t *testing.T) {
	r := NewRegistry()
	kept := r.Create(types.CallbackGroupMutuallyExclusive, true)
	for i := 0; i < 8; i++ {
		_ = r.Create(types.CallbackGroupReentrant, true)
	}

	require.Eventually(t, func() bool {
		runtime.GC()
		return r.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 8, r.Prune())
	assert.Equal(t, 0, r.Prune())
	assert.True(t, r.Contains(kept))
	runtime.KeepAlive(kept)
}

// 4 个 goroutine 各创建 10 个回调组，同时第 5 个 goroutine 反复遍历
func TestRegistry_ConcurrentCreateAndIterate(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	var retained []*Group

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	iterDone := make(chan struct{})
	go func() {
		defer close(iterDone)
		for ctx.Err() == nil {
			r.ForEach(func(g *Group) { _ = g.Type() })
		}
	}()

	var g errgroup.Group
	for w := 0; w < 4; w++ {
		g.Go(func() error {
			for i := 0; i < 10; i++ {
				grp := r.Create(types.CallbackGroupReentrant, true)
				mu.Lock()
				retained = append(retained, grp)
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	cancel()
	<-iterDone

	runtime.GC()
	assert.Equal(t, 40, r.Len())
	for _, grp := range retained {
		assert.True(t, r.Contains(grp))
	}
	runtime.KeepAlive(retained)
}
