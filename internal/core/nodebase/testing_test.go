package nodebase

import (
	"bytes"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/internal/middleware/inproc"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// faultMiddleware 在进程内中间件之上注入故障并统计调用
type faultMiddleware struct {
	*inproc.Middleware

	initGuardErr error
	initNodeErr  error

	initNodeCalls  atomic.Int32
	finiGuardCalls atomic.Int32
	resolveCalls   atomic.Int32
}

func newFaultMiddleware() *faultMiddleware {
	return &faultMiddleware{Middleware: inproc.New()}
}

func (f *faultMiddleware) InitGuardCondition(rt interfaces.RuntimeHandle) (interfaces.GuardCondition, error) {
	if f.initGuardErr != nil {
		return nil, f.initGuardErr
	}
	return f.Middleware.InitGuardCondition(rt)
}

func (f *faultMiddleware) FiniGuardCondition(gc interfaces.GuardCondition) error {
	f.finiGuardCalls.Add(1)
	return f.Middleware.FiniGuardCondition(gc)
}

func (f *faultMiddleware) InitNode(rt interfaces.RuntimeHandle, name, namespace string, opts types.NodeOptions) (interfaces.NodeHandle, error) {
	f.initNodeCalls.Add(1)
	if f.initNodeErr != nil {
		return nil, f.initNodeErr
	}
	return f.Middleware.InitNode(rt, name, namespace, opts)
}

func (f *faultMiddleware) ResolveName(h interfaces.NodeHandle, name string, alloc types.Allocator, isService, onlyExpand bool) (*bytes.Buffer, error) {
	f.resolveCalls.Add(1)
	return f.Middleware.ResolveName(h, name, alloc, isService, onlyExpand)
}

// mockValidator 名称校验协作方 mock
type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) ValidateNodeName(name string) (types.NodeNameValidation, error) {
	args := m.Called(name)
	return args.Get(0).(types.NodeNameValidation), args.Error(1)
}

func (m *mockValidator) ValidateNamespace(namespace string) (types.NamespaceValidation, error) {
	args := m.Called(namespace)
	return args.Get(0).(types.NamespaceValidation), args.Error(1)
}

// countingAllocator 统计缓冲区分配与归还
type countingAllocator struct {
	types.Allocator
	allocs atomic.Int32
	frees  atomic.Int32
}

func (a *countingAllocator) Allocate(sizeHint int) *bytes.Buffer {
	a.allocs.Add(1)
	return a.Allocator.Allocate(sizeHint)
}

func (a *countingAllocator) Deallocate(buf *bytes.Buffer) {
	a.frees.Add(1)
	a.Allocator.Deallocate(buf)
}

func newContext(t *testing.T, mw interfaces.Middleware) *rtcontext.Context {
	t.Helper()
	ctx, err := rtcontext.New(mw, types.DefaultContextOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

func newNode(t *testing.T, ctx *rtcontext.Context, name, namespace string, opts ...Option) *Node {
	t.Helper()
	n, err := New(name, namespace, ctx, types.DefaultNodeOptions(), false, false, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n
}
