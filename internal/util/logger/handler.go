package logger

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// componentKey LazyLogger 附加的组件属性名
const componentKey = "component"

// levels 可在运行时调整的级别表，所有派生 handler 共享
type levels struct {
	mu         sync.RWMutex
	def        slog.Level
	components map[string]slog.Level
}

func newLevels(cfg *Config) *levels {
	l := &levels{def: cfg.DefaultLevel, components: make(map[string]slog.Level, len(cfg.ComponentLevels))}
	for k, v := range cfg.ComponentLevels {
		l.components[k] = v
	}
	return l
}

func (l *levels) get(component string) slog.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if lvl, ok := l.components[component]; ok {
		return lvl
	}
	return l.def
}

// minimum 返回所有已配置级别中的最低值，用于未绑定组件的 handler
func (l *levels) minimum() slog.Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m := l.def
	for _, lvl := range l.components {
		if lvl < m {
			m = lvl
		}
	}
	return m
}

func (l *levels) set(component string, level slog.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if component == "" {
		l.def = level
		return
	}
	l.components[component] = level
}

// componentHandler 按组件属性过滤级别的 slog.Handler
//
// WithAttrs 遇到 component 属性时绑定组件，之后的 Enabled 按该组件的级别判断。
type componentHandler struct {
	component string
	bound     bool
	levels    *levels
	inner     slog.Handler
}

func newHandler(w io.Writer, cfg *Config, lv *levels) *componentHandler {
	opts := &slog.HandlerOptions{
		// 级别过滤由 componentHandler 负责
		Level:     slog.Level(-8),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelToString(lvl))
				}
			}
			return a
		},
	}

	var inner slog.Handler
	if cfg.Format == FormatJSON {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}
	return &componentHandler{levels: lv, inner: inner}
}

// Enabled 检查是否启用指定级别
func (h *componentHandler) Enabled(_ context.Context, level slog.Level) bool {
	if !h.bound {
		return level >= h.levels.minimum()
	}
	return level >= h.levels.get(h.component)
}

// Handle 处理日志记录
func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.bound {
		// 记录自身可能携带组件属性
		component := ""
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == componentKey {
				component = a.Value.String()
				return false
			}
			return true
		})
		if r.Level < h.levels.get(component) {
			return nil
		}
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs 添加属性
func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &componentHandler{
		component: h.component,
		bound:     h.bound,
		levels:    h.levels,
		inner:     h.inner.WithAttrs(attrs),
	}
	for _, a := range attrs {
		if a.Key == componentKey {
			next.component = a.Value.String()
			next.bound = true
		}
	}
	return next
}

// WithGroup 添加组
func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{
		component: h.component,
		bound:     h.bound,
		levels:    h.levels,
		inner:     h.inner.WithGroup(name),
	}
}

// levelToString 将日志级别转换为小写字符串
func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return "info"
	}
}

// discardHandler 丢弃所有日志的 Handler（用于测试）
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardHandler 返回一个丢弃所有日志的 Handler
func DiscardHandler() slog.Handler {
	return discardHandler{}
}
