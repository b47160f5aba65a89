// Package tracing 初始化 OpenTelemetry 追踪
//
// 节点核心的构造与终结会产生 span（nodebase.New / nodebase.Close），
// 本包负责创建 OTLP HTTP 导出器和 TracerProvider，并设为全局 provider。
package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

var logger = log.Logger("util/tracing")

// ErrInvalidSampleRatio 采样率不在 [0, 1] 内
var ErrInvalidSampleRatio = errors.New("tracing: sample ratio must be within [0, 1]")

// ShutdownTimeout Shutdown 默认超时
const ShutdownTimeout = 10 * time.Second

// Config 追踪配置
type Config struct {
	// Enabled 是否启用追踪；关闭时使用 noop provider
	Enabled bool

	// ServiceName 服务名
	ServiceName string

	// ServiceVersion 服务版本
	ServiceVersion string

	// Environment 部署环境
	Environment string

	// Endpoint OTLP HTTP 端点（仅 host:port，路径由导出器补全）
	Endpoint string

	// Insecure 是否使用明文 HTTP
	Insecure bool

	// SampleRatio 采样率
	SampleRatio float64
}

// DefaultConfig 返回默认配置（关闭）
func DefaultConfig() Config {
	return Config{
		ServiceName:    "nodecore",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "127.0.0.1:4318",
		Insecure:       true,
		SampleRatio:    1.0,
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}
	if c.Enabled && c.Endpoint == "" {
		return errors.New("tracing: endpoint is required when enabled")
	}
	return nil
}

// ShutdownFunc 关闭 provider 并刷新未导出的 span
type ShutdownFunc func(context.Context) error

// Setup 初始化追踪并设置全局 TracerProvider
//
// 关闭时返回 noop provider 和空操作的 ShutdownFunc，不修改全局状态。
func Setup(ctx context.Context, cfg Config) (trace.TracerProvider, ShutdownFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if !cfg.Enabled {
		return noop.NewTracerProvider(), func(context.Context) error { return nil }, nil
	}

	logger.Info("初始化追踪",
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"environment", cfg.Environment)

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, nil, fmt.Errorf("tracing: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, tp.Shutdown, nil
}

// Shutdown 在超时内关闭追踪，失败只记录日志并返回
func Shutdown(shutdown ShutdownFunc) error {
	if shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Warn("关闭追踪失败", "error", err)
		return err
	}
	return nil
}
