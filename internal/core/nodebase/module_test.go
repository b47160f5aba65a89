package nodebase

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/core/rtcontext"
	"github.com/dep2p/go-nodecore/internal/middleware/inproc"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/types"
)

func TestFactory_Defaults(t *testing.T) {
	ctx := newContext(t, inproc.New())
	cfg := DefaultConfig()
	cfg.UseIntraProcessDefault = true
	cfg.NodeOptions.Remappings = []types.RemapRule{{Kind: types.RemapTopic, From: "chatter", To: "babble"}}

	f := NewFactory(ctx, cfg)
	assert.Same(t, ctx, f.Context())
	assert.Equal(t, cfg, f.Config())

	n, err := f.New("talker", "/", nil)
	require.NoError(t, err)
	defer n.Close()

	assert.True(t, n.UseIntraProcessDefault())
	got, err := n.ResolveTopicOrServiceName("chatter", false, false)
	require.NoError(t, err)
	assert.Equal(t, "/babble", got)

	// 显式选项覆盖工厂默认值
	override := types.DefaultNodeOptions()
	m, err := f.New("listener", "/", &override)
	require.NoError(t, err)
	defer m.Close()

	got, err = m.ResolveTopicOrServiceName("chatter", false, false)
	require.NoError(t, err)
	assert.Equal(t, "/chatter", got)
}

func TestModule_ProvidesFactory(t *testing.T) {
	reg := prometheus.NewRegistry()
	var f *Factory

	app := fxtest.New(t,
		fx.Supply(fx.Annotate(inproc.New(), fx.As(new(interfaces.Middleware)))),
		fx.Supply(fx.Annotate(reg, fx.As(new(prometheus.Registerer)))),
		fx.Supply(&metrics.Config{Enabled: true, Namespace: "fxnode"}),
		rtcontext.Module(),
		metrics.Module,
		Module(),
		fx.Populate(&f),
	)
	app.RequireStart()

	require.NotNil(t, f)
	assert.Equal(t, DefaultResolveCacheSize, f.Config().ResolveCacheSize)

	n, err := f.New("talker", "/", nil)
	require.NoError(t, err)
	expected := `
# HELP fxnode_nodes_active Number of node cores currently alive.
# TYPE fxnode_nodes_active gauge
fxnode_nodes_active 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fxnode_nodes_active"))
	require.NoError(t, n.Close())

	app.RequireStop()
	assert.False(t, f.Context().IsValid())
}
