package inproc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
	"github.com/dep2p/go-nodecore/pkg/types"
)

func initNode(t *testing.T, m *Middleware, rt interfaces.RuntimeHandle, name, ns string, opts types.NodeOptions) (*node, error) {
	t.Helper()
	mu := log.GlobalMutex()
	mu.Lock()
	defer mu.Unlock()
	h, err := m.InitNode(rt, name, ns, opts)
	if err != nil {
		return nil, err
	}
	return h.(*node), nil
}

func finiNode(t *testing.T, m *Middleware, n *node) error {
	t.Helper()
	mu := log.GlobalMutex()
	mu.Lock()
	defer mu.Unlock()
	return m.FiniNode(n)
}

func TestRuntime_Lifecycle(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)
	assert.True(t, rt.IsValid())
	assert.NotEmpty(t, rt.InstanceID())

	require.NoError(t, m.FiniRuntime(rt))
	assert.False(t, rt.IsValid())

	err = m.FiniRuntime(rt)
	assert.True(t, errors.Is(err, types.ErrAlreadyShutdown))
}

func TestGuardCondition_TriggerCoalesces(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)

	gc, err := m.InitGuardCondition(rt)
	require.NoError(t, err)
	assert.Equal(t, 1, m.GuardConditionCount(rt))

	require.NoError(t, gc.Trigger())
	require.NoError(t, gc.Trigger())

	select {
	case <-gc.C():
	default:
		t.Fatal("守护条件应已触发")
	}
	select {
	case <-gc.C():
		t.Fatal("多次触发应合并为一次")
	default:
	}

	require.NoError(t, m.FiniGuardCondition(gc))
	assert.Equal(t, 0, m.GuardConditionCount(rt))
	assert.True(t, errors.Is(gc.Trigger(), types.ErrGuardConditionInvalid))
	assert.True(t, errors.Is(m.FiniGuardCondition(gc), types.ErrGuardConditionInvalid))
}

func TestGuardCondition_InvalidRuntime(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)
	require.NoError(t, m.FiniRuntime(rt))

	_, err = m.InitGuardCondition(rt)
	assert.True(t, errors.Is(err, types.ErrNotInit))
}

func TestNode_InitNotifiesGraph(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)
	gc, err := m.InitGuardCondition(rt)
	require.NoError(t, err)

	n, err := initNode(t, m, rt, "talker", "/robot", types.DefaultNodeOptions())
	require.NoError(t, err)

	select {
	case <-gc.C():
	default:
		t.Fatal("节点加入应触发图变化")
	}

	name, err := m.NodeName(n)
	require.NoError(t, err)
	assert.Equal(t, "talker", name)
	ns, err := m.NodeNamespace(n)
	require.NoError(t, err)
	assert.Equal(t, "/robot", ns)
	fqn, err := m.NodeFullyQualifiedName(n)
	require.NoError(t, err)
	assert.Equal(t, "/robot/talker", fqn)

	assert.Equal(t, []string{"/robot/talker"}, m.NodeNames(rt))
	assert.Contains(t, log.NodeSinks(), "/robot/talker")

	require.NoError(t, finiNode(t, m, n))
	select {
	case <-gc.C():
	default:
		t.Fatal("节点离开应触发图变化")
	}
	assert.Empty(t, m.NodeNames(rt))
	assert.NotContains(t, log.NodeSinks(), "/robot/talker")

	_, err = m.NodeName(n)
	assert.True(t, errors.Is(err, types.ErrNodeInvalid))
	assert.True(t, errors.Is(finiNode(t, m, n), types.ErrNodeInvalid))
}

func TestNode_EmptyNamespaceIsRoot(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)

	n, err := initNode(t, m, rt, "talker", "", types.NodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/talker", n.fqn)
	assert.NotContains(t, log.NodeSinks(), "/talker")
	require.NoError(t, finiNode(t, m, n))
}

func TestNode_InitRejectsInvalidNames(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)

	_, err = initNode(t, m, rt, "bad name!", "/", types.DefaultNodeOptions())
	assert.True(t, errors.Is(err, types.ErrNodeInvalidName))

	_, err = initNode(t, m, rt, "talker", "not/absolute", types.DefaultNodeOptions())
	assert.True(t, errors.Is(err, types.ErrNodeInvalidNamespace))

	assert.Empty(t, m.NodeNames(rt))
}

func TestNode_InitOnInvalidRuntime(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)
	require.NoError(t, m.FiniRuntime(rt))

	_, err = initNode(t, m, rt, "talker", "/", types.DefaultNodeOptions())
	assert.True(t, errors.Is(err, types.ErrNotInit))
}

func TestFiniRuntime_WithLiveNodes(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)

	n, err := initNode(t, m, rt, "talker", "/", types.NodeOptions{})
	require.NoError(t, err)

	err = m.FiniRuntime(rt)
	assert.Error(t, err)
	assert.Equal(t, types.StatusGeneric, types.StatusOf(err))
	assert.False(t, rt.IsValid())

	require.NoError(t, finiNode(t, m, n))
}

func TestResolveName(t *testing.T) {
	m := New()
	rt, err := m.InitRuntime(types.DefaultContextOptions())
	require.NoError(t, err)

	opts := types.NodeOptions{
		Remappings: []types.RemapRule{{Kind: types.RemapTopic, From: "chatter", To: "babble"}},
	}
	n, err := initNode(t, m, rt, "talker", "/ns", opts)
	require.NoError(t, err)
	defer func() { _ = finiNode(t, m, n) }()

	alloc := types.DefaultAllocator()

	buf, err := m.ResolveName(n, "chatter", alloc, false, false)
	require.NoError(t, err)
	assert.Equal(t, "/ns/babble", buf.String())
	alloc.Deallocate(buf)

	buf, err = m.ResolveName(n, "chatter", alloc, false, true)
	require.NoError(t, err)
	assert.Equal(t, "/ns/chatter", buf.String())
	alloc.Deallocate(buf)

	_, err = m.ResolveName(n, "bad name", alloc, false, false)
	assert.True(t, errors.Is(err, types.ErrTopicNameInvalid))

	_, err = m.ResolveName(n, "chatter", nil, false, false)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}
