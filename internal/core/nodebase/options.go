package nodebase

import (
	"sync"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dep2p/go-nodecore/internal/core/metrics"
	"github.com/dep2p/go-nodecore/internal/naming"
	"github.com/dep2p/go-nodecore/pkg/interfaces"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
	"github.com/dep2p/go-nodecore/pkg/types"
)

// DefaultResolveCacheSize 名称解析缓存默认容量
const DefaultResolveCacheSize = 128

// tracerName 节点核心 tracer 名称
const tracerName = "github.com/dep2p/go-nodecore/internal/core/nodebase"

type options struct {
	validator        interfaces.NameValidator
	lock             *sync.Mutex
	metrics          *metrics.Metrics
	tracerProvider   trace.TracerProvider
	clock            clock.Clock
	allocator        types.Allocator
	resolveCacheSize int
}

func defaultOptions() options {
	return options{
		validator:        naming.NewValidator(),
		lock:             log.GlobalMutex(),
		tracerProvider:   otel.GetTracerProvider(),
		clock:            clock.New(),
		allocator:        types.DefaultAllocator(),
		resolveCacheSize: DefaultResolveCacheSize,
	}
}

// Option 节点核心构造选项
type Option func(*options)

// WithValidator 设置名称校验协作方
func WithValidator(v interfaces.NameValidator) Option {
	return func(o *options) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithGlobalLock 设置全局串行锁，默认为 log.GlobalMutex()
func WithGlobalLock(mu *sync.Mutex) Option {
	return func(o *options) {
		if mu != nil {
			o.lock = mu
		}
	}
}

// WithMetrics 设置指标，nil 表示不记录
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider 设置 TracerProvider，默认使用全局 provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithClock 设置时钟
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithAllocator 设置名称解析使用的缓冲区分配器
func WithAllocator(a types.Allocator) Option {
	return func(o *options) {
		if a != nil {
			o.allocator = a
		}
	}
}

// WithResolveCacheSize 设置名称解析缓存容量，<= 0 表示关闭缓存
func WithResolveCacheSize(size int) Option {
	return func(o *options) {
		o.resolveCacheSize = size
	}
}
