// Package main 提供 nodecore 命令行入口
//
// 启动一个运行时，在其上构造节点并演示回调组与图变化唤醒。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dep2p/go-nodecore"
	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

var logger = log.Logger("nodecore/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖（「这次运行」想怎么跑）
//   JSON 配置文件：持久化配置（重映射、日志、指标、追踪）
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	// ─────────────────────────────────────────────────────────────────────
	// 节点参数
	// ─────────────────────────────────────────────────────────────────────
	nodeName   = flag.String("name", "talker", "节点名称")
	namespace  = flag.String("namespace", "/", "节点命名空间")
	configFile = flag.String("config", "", "配置文件路径")
	preset     = flag.String("preset", "", "预设配置 (development/production/minimal)")
	watch      = flag.Bool("watch", false, "演示结束后继续运行并报告图变化，直到收到退出信号")

	// ─────────────────────────────────────────────────────────────────────
	// 观测参数
	// ─────────────────────────────────────────────────────────────────────
	metricsAddr = flag.String("metrics-addr", "", "Prometheus 指标监听地址（空 = 不暴露）")
	logFile     = flag.String("log", "", "日志文件路径（空 = stderr）")

	// ─────────────────────────────────────────────────────────────────────
	// 信息显示
	// ─────────────────────────────────────────────────────────────────────
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		printVersion()
		return nil
	}

	opts, closeLog, err := buildOptions()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("📦 %s\n", nodecore.VersionInfo())

	rt, err := nodecore.New(opts...)
	if err != nil {
		return fmt.Errorf("创建运行时失败: %w", err)
	}
	defer func() { _ = rt.Close() }()

	if err := rt.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	node, err := rt.CreateNode(*nodeName, *namespace)
	if err != nil {
		var nameErr *nodecore.InvalidNameError
		if errors.As(err, &nameErr) {
			fmt.Fprintln(os.Stderr, nameErr.Diagnostic())
		}
		var nsErr *nodecore.InvalidNamespaceError
		if errors.As(err, &nsErr) {
			fmt.Fprintln(os.Stderr, nsErr.Diagnostic())
		}
		return fmt.Errorf("创建节点失败: %w", err)
	}
	printNodeInfo(node)

	g, gctx := errgroup.WithContext(ctx)

	if *metricsAddr != "" {
		srv := newMetricsServer(rt, *metricsAddr)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("指标服务失败: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		fmt.Printf("指标地址: http://%s/metrics\n", *metricsAddr)
	}

	g.Go(func() error {
		err := demo(gctx, rt, node)
		if err != nil || !*watch {
			stop()
			return err
		}
		fmt.Println("持续监听图变化，按 Ctrl+C 退出")
		return watchGraph(gctx, node)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println("正在关闭运行时...")
	return nil
}

// demo 演示回调组与图变化唤醒
//
// 启动一个对等节点，主节点的图变化守护条件应被唤醒。
func demo(ctx context.Context, rt *nodecore.Runtime, node *nodecore.Node) error {
	group := node.CreateCallbackGroup(nodecore.Reentrant, true)
	count := 0
	node.ForEachCallbackGroup(func(*nodecore.CallbackGroup) { count++ })
	fmt.Printf("回调组: %d（新建组 %s，属于本节点: %t）\n",
		count, group.Type(), node.CallbackGroupInNode(group))

	if gc, ok := node.GraphGuardCondition(); ok {
		drain(gc.C())
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var peer *nodecore.Node
	g, _ := errgroup.WithContext(waitCtx)
	g.Go(func() error {
		return node.WaitForGraphChange(waitCtx)
	})
	g.Go(func() error {
		var err error
		peer, err = rt.CreateNode(*nodeName+"_peer", *namespace)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("图变化演示失败: %w", err)
	}
	defer func() { _ = peer.Close() }()

	fmt.Printf("图变化: %s 加入后 %s 被唤醒\n", peer.FullyQualifiedName(), node.FullyQualifiedName())
	logger.Info("图变化演示完成", "node", node.FullyQualifiedName(), "peer", peer.FullyQualifiedName())

	resolved, err := node.ResolveTopicName("~/chatter")
	if err != nil {
		return fmt.Errorf("名称解析失败: %w", err)
	}
	fmt.Printf("名称解析: ~/chatter -> %s\n", resolved)
	return nil
}

// watchGraph 报告每次图变化，直到 ctx 结束
func watchGraph(ctx context.Context, node *nodecore.Node) error {
	for {
		if err := node.WaitForGraphChange(ctx); err != nil {
			return err
		}
		logger.Info("检测到图变化", "node", node.FullyQualifiedName())
	}
}

func drain(ch <-chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// newMetricsServer 创建指标 HTTP 服务
func newMetricsServer(rt *nodecore.Runtime, addr string) *http.Server {
	mux := http.NewServeMux()
	if g := rt.Gatherer(); g != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// buildOptions 构建选项
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（NODECORE_* 前缀）
//  3. 配置文件
//  4. 预设默认值
func buildOptions() ([]nodecore.Option, func(), error) {
	var opts []nodecore.Option
	closeLog := func() {}

	if *configFile != "" {
		opts = append(opts, nodecore.WithConfigFile(*configFile))
	}

	presetName := *preset
	if presetName == "" {
		presetName = os.Getenv(EnvPreset)
	}
	if presetName != "" {
		opts = append(opts, nodecore.WithPreset(presetName))
	}

	envOpts, err := envOptions()
	if err != nil {
		return nil, closeLog, err
	}
	opts = append(opts, envOpts...)

	if *logFile != "" {
		if err := os.MkdirAll(filepath.Dir(*logFile), 0o750); err != nil {
			return nil, closeLog, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, closeLog, fmt.Errorf("打开日志文件失败: %w", err)
		}
		closeLog = func() { _ = f.Close() }
		opts = append(opts, nodecore.WithLogOutput(f))
	}

	return opts, closeLog, nil
}

// printNodeInfo 打印节点信息
func printNodeInfo(node *nodecore.Node) {
	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Printf("║  节点: %-56s║\n", node.FullyQualifiedName())
	fmt.Printf("║  阶段: %-56s║\n", node.Phase())
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("nodecore %s\n", nodecore.Version)
	if nodecore.GitCommit != "" {
		fmt.Printf("  commit: %s\n", nodecore.GitCommit)
	}
	if nodecore.BuildDate != "" {
		fmt.Printf("  built:  %s\n", nodecore.BuildDate)
	}
}
