package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("test", reg)
	require.NoError(t, err)

	m.NodeCreated(2 * time.Millisecond)
	m.NodeCreated(3 * time.Millisecond)
	m.NodeFinalized()
	m.InitFailed(ReasonInvalidName)
	m.InitFailed(ReasonInvalidName)
	m.CallbackGroupCreated("reentrant")
	m.GraphNotified()
	m.FinalizeFailed(ResourceGuardCondition)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.nodesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.nodesActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.initFailures.WithLabelValues(ReasonInvalidName)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.groupsCreated.WithLabelValues("reentrant")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphNotifications))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.finalizeErrors.WithLabelValues(ResourceGuardCondition)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.constructionTime))

	n, err := testutil.GatherAndCount(reg, "test_nodes_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New("dup", reg)
	require.NoError(t, err)

	_, err = New("dup", reg)
	assert.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.NodeCreated(time.Millisecond)
		m.NodeFinalized()
		m.InitFailed(ReasonResource)
		m.CallbackGroupCreated("mutually_exclusive")
		m.GraphNotified()
		m.FinalizeFailed(ResourceNodeHandle)
	})
}

func TestModule_Provides(t *testing.T) {
	var m *Metrics
	app := fxtest.New(t,
		fx.Supply(fx.Annotate(prometheus.NewRegistry(), fx.As(new(prometheus.Registerer)))),
		Module,
		fx.Populate(&m),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, m)
	m.GraphNotified()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.graphNotifications))
}

func TestModule_Disabled(t *testing.T) {
	var m *Metrics
	app := fxtest.New(t,
		fx.Supply(&Config{Enabled: false}),
		Module,
		fx.Populate(&m),
	)
	defer app.RequireStart().RequireStop()

	assert.Nil(t, m)
}
