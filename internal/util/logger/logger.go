package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	installMu sync.Mutex
	installed *levels
)

// Install 构造日志处理器并设为 slog 默认 logger
//
// cfg 为 nil 时使用 ConfigFromEnv()；w 为 nil 时输出到 stderr。
// 可重复调用，后一次覆盖前一次；已声明的 LazyLogger 自动生效。
func Install(cfg *Config, w io.Writer) *slog.Logger {
	if cfg == nil {
		cfg = ConfigFromEnv()
	}
	if w == nil {
		w = os.Stderr
	}

	lv := newLevels(cfg)
	l := slog.New(newHandler(w, cfg, lv))

	installMu.Lock()
	installed = lv
	installMu.Unlock()

	slog.SetDefault(l)
	return l
}

// SetLevel 动态设置组件的日志级别，component 为空时设置默认级别
//
// 仅对 Install 安装的处理器生效；尚未安装时无效果。
//
// 示例:
//
//	logger.SetLevel("core/nodebase", slog.LevelDebug)
func SetLevel(component string, level slog.Level) {
	installMu.Lock()
	lv := installed
	installMu.Unlock()
	if lv != nil {
		lv.set(component, level)
	}
}

// Discard 返回一个丢弃所有日志的 Logger
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}
