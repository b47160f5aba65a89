// Package metrics 提供节点核心的 Prometheus 指标
//
// 指标列表（默认命名空间 nodecore）：
//   - nodecore_nodes_created_total：构造成功的节点数
//   - nodecore_nodes_active：当前存活的节点数
//   - nodecore_node_init_failures_total{reason}：构造失败次数
//   - nodecore_callback_groups_created_total{type}：创建的回调组数
//   - nodecore_graph_notifications_total：图变化信号触发次数
//   - nodecore_finalize_errors_total{resource}：终结失败次数
//   - nodecore_node_construction_seconds：构造耗时
//
// *Metrics 的所有记录方法对 nil 接收者安全，指标关闭时直接传 nil。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 构造失败原因标签
const (
	ReasonContext        = "context"
	ReasonGuardCondition = "guard_condition"
	ReasonInvalidName    = "invalid_name"
	ReasonInvalidNS      = "invalid_namespace"
	ReasonInconsistency  = "inconsistency"
	ReasonResource       = "resource"
)

// 终结失败资源标签
const (
	ResourceNodeHandle     = "node_handle"
	ResourceGuardCondition = "guard_condition"
)

// Metrics 节点核心指标
type Metrics struct {
	nodesCreated       prometheus.Counter
	nodesActive        prometheus.Gauge
	initFailures       *prometheus.CounterVec
	groupsCreated      *prometheus.CounterVec
	graphNotifications prometheus.Counter
	finalizeErrors     *prometheus.CounterVec
	constructionTime   prometheus.Histogram
}

// New 创建指标并注册到 reg
//
// reg 为 nil 时使用 prometheus.DefaultRegisterer。
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = "nodecore"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		nodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Number of node cores constructed successfully.",
		}),
		nodesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "nodes_active",
			Help:      "Number of node cores currently alive.",
		}),
		initFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_init_failures_total",
			Help:      "Number of failed node core constructions by reason.",
		}, []string{"reason"}),
		groupsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_groups_created_total",
			Help:      "Number of callback groups created by type.",
		}, []string{"type"}),
		graphNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_notifications_total",
			Help:      "Number of graph change signal triggers.",
		}),
		finalizeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalize_errors_total",
			Help:      "Number of resource finalization failures by resource.",
		}, []string{"resource"}),
		constructionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "node_construction_seconds",
			Help:      "Time spent constructing a node core.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.nodesCreated,
		m.nodesActive,
		m.initFailures,
		m.groupsCreated,
		m.graphNotifications,
		m.finalizeErrors,
		m.constructionTime,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NodeCreated 记录一次成功构造
func (m *Metrics) NodeCreated(took time.Duration) {
	if m == nil {
		return
	}
	m.nodesCreated.Inc()
	m.nodesActive.Inc()
	m.constructionTime.Observe(took.Seconds())
}

// NodeFinalized 记录一次节点终结
func (m *Metrics) NodeFinalized() {
	if m == nil {
		return
	}
	m.nodesActive.Dec()
}

// InitFailed 记录一次构造失败
func (m *Metrics) InitFailed(reason string) {
	if m == nil {
		return
	}
	m.initFailures.WithLabelValues(reason).Inc()
}

// CallbackGroupCreated 记录一次回调组创建
func (m *Metrics) CallbackGroupCreated(groupType string) {
	if m == nil {
		return
	}
	m.groupsCreated.WithLabelValues(groupType).Inc()
}

// GraphNotified 记录一次图变化信号触发
func (m *Metrics) GraphNotified() {
	if m == nil {
		return
	}
	m.graphNotifications.Inc()
}

// FinalizeFailed 记录一次终结失败
func (m *Metrics) FinalizeFailed(resource string) {
	if m == nil {
		return
	}
	m.finalizeErrors.WithLabelValues(resource).Inc()
}
