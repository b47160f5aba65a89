package nodehandle

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/internal/middleware/inproc"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// recordingMiddleware 记录 FiniNode 调用时的上下文引用计数和锁状态
type recordingMiddleware struct {
	*inproc.Middleware

	ctx  *rtcontext.Context
	lock *sync.Mutex

	finiCalls    int
	refsAtFini   []int64
	lockedAtFini []bool
	finiErr      error
}

func (p *recordingMiddleware) FiniNode(h interfaces.NodeHandle) error {
	p.finiCalls++
	p.refsAtFini = append(p.refsAtFini, p.ctx.RefCount())
	locked := !p.lock.TryLock()
	if !locked {
		p.lock.Unlock()
	}
	p.lockedAtFini = append(p.lockedAtFini, locked)

	if err := p.Middleware.FiniNode(h); err != nil {
		return err
	}
	return p.finiErr
}

func setup(t *testing.T) (*recordingMiddleware, *rtcontext.Context, interfaces.NodeHandle) {
	t.Helper()
	lock := &sync.Mutex{}
	mw := &recordingMiddleware{Middleware: inproc.New(), lock: lock}

	ctx, err := rtcontext.New(mw, types.DefaultContextOptions())
	require.NoError(t, err)
	mw.ctx = ctx

	lock.Lock()
	raw, err := mw.InitNode(ctx.Runtime(), "talker", "/", types.NodeOptions{})
	lock.Unlock()
	require.NoError(t, err)
	return mw, ctx, raw
}

func TestMake_Preconditions(t *testing.T) {
	mw, ctx, raw := setup(t)

	_, err := Make(nil, mw.lock, mw, raw)
	assert.ErrorIs(t, err, ErrNilContext)
	_, err = Make(ctx, nil, mw, raw)
	assert.ErrorIs(t, err, ErrNilLock)
	_, err = Make(ctx, mw.lock, mw, nil)
	assert.ErrorIs(t, err, ErrNilHandle)

	assert.EqualValues(t, 1, ctx.RefCount(), "失败时不获取引用")
}

func TestMake_FinalizedContext(t *testing.T) {
	mw, ctx, raw := setup(t)
	require.NoError(t, ctx.Close())

	_, err := Make(ctx, mw.lock, mw, raw)
	assert.ErrorIs(t, err, rtcontext.ErrFinalized)
}

// 底层句柄终结时，上下文引用计数中包含句柄自身持有的一份
func TestRelease_ContextOutlivesHandle(t *testing.T) {
	mw, ctx, raw := setup(t)

	h, err := Make(ctx, mw.lock, nil, raw)
	require.NoError(t, err)
	assert.EqualValues(t, 2, ctx.RefCount())
	assert.Same(t, ctx, h.Context())

	// 创建者先释放，句柄成为唯一持有者
	require.NoError(t, ctx.Close())
	assert.True(t, ctx.Runtime().IsValid())

	h.Release()

	require.Equal(t, 1, mw.finiCalls)
	assert.GreaterOrEqual(t, mw.refsAtFini[0], int64(1))
	assert.True(t, mw.lockedAtFini[0], "终结必须在全局串行锁内执行")
	assert.EqualValues(t, 0, ctx.RefCount())
	assert.False(t, ctx.Runtime().IsValid())
	assert.Nil(t, h.Raw())
	assert.False(t, h.Valid())
}

func TestMove_FinalizesOnce(t *testing.T) {
	mw, ctx, raw := setup(t)
	defer ctx.Close()

	src, err := Make(ctx, mw.lock, mw, raw)
	require.NoError(t, err)

	dst := src.Move()
	assert.False(t, src.Valid())
	assert.Nil(t, src.Raw())
	assert.True(t, dst.Valid())
	assert.Equal(t, raw, dst.Raw())

	src.Release()
	assert.Equal(t, 0, mw.finiCalls, "失效的源不执行终结")

	dst.Release()
	dst.Release()
	assert.Equal(t, 1, mw.finiCalls)

	_, err = src.Share()
	assert.ErrorIs(t, err, ErrInert)
}

func TestShare_LastOwnerFinalizes(t *testing.T) {
	mw, ctx, raw := setup(t)
	defer ctx.Close()

	h, err := Make(ctx, mw.lock, mw, raw)
	require.NoError(t, err)
	shared, err := h.Share()
	require.NoError(t, err)
	assert.EqualValues(t, 2, h.Owners())

	h.Release()
	assert.Equal(t, 0, mw.finiCalls)
	assert.True(t, shared.Valid())

	shared.Release()
	assert.Equal(t, 1, mw.finiCalls)
	assert.EqualValues(t, 1, ctx.RefCount())
}

func TestRelease_FinalizeErrorIsLogged(t *testing.T) {
	mw, ctx, raw := setup(t)
	defer ctx.Close()
	mw.finiErr = errors.New("transport wedged")

	var reported error
	h, err := Make(ctx, mw.lock, mw, raw, WithFinalizeErrorHandler(func(err error) {
		reported = err
	}))
	require.NoError(t, err)

	h.Release()
	assert.EqualError(t, reported, "transport wedged")
	assert.EqualValues(t, 1, ctx.RefCount(), "终结失败也要释放上下文引用")
}

// 最后一个所有者释放后，指向同一记录的 Share 不得复活记录
func TestShare_AfterLastReleaseIsInert(t *testing.T) {
	mw, ctx, raw := setup(t)
	defer ctx.Close()

	h, err := Make(ctx, mw.lock, mw, raw)
	require.NoError(t, err)

	// 模拟 Share 已读到记录、Release 随后把计数降为零的交错
	stale := &Handle{}
	stale.rec.Store(h.rec.Load())
	h.Release()
	require.Equal(t, 1, mw.finiCalls)

	_, err = stale.Share()
	assert.ErrorIs(t, err, ErrInert)
	assert.EqualValues(t, 0, stale.Owners())

	stale.rec.Store(nil)
	assert.Equal(t, 1, mw.finiCalls, "记录只终结一次")
	assert.EqualValues(t, 1, ctx.RefCount(), "只释放句柄持有的一份上下文引用")
}

func TestShare_ConcurrentWithRelease(t *testing.T) {
	for i := 0; i < 200; i++ {
		mw, ctx, raw := setup(t)

		h, err := Make(ctx, mw.lock, mw, raw)
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.Release()
		}()
		go func() {
			defer wg.Done()
			if shared, err := h.Share(); err == nil {
				shared.Release()
			}
		}()
		wg.Wait()

		require.Equal(t, 1, mw.finiCalls, "iteration %d", i)
		require.EqualValues(t, 1, ctx.RefCount(), "iteration %d", i)
		require.NoError(t, ctx.Close())
	}
}
