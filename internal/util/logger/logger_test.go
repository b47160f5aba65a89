package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-nodecore/pkg/lib/log"
)

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestParseLevelSpec(t *testing.T) {
	cfg := DefaultConfig()
	ParseLevelSpec(cfg, "core/nodebase=debug, core/graphsignal=warn ,error,bogus=loud,")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("core/nodebase"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelFor("core/graphsignal"))
	assert.Equal(t, slog.LevelError, cfg.LevelFor("bogus"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "core/rtcontext=debug,warn")
	t.Setenv(EnvFormat, "JSON")
	t.Setenv(EnvAddSource, "true")

	cfg := ConfigFromEnv()
	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("core/rtcontext"))
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
}

func TestInstall_LazyLoggerFollowsComponentLevel(t *testing.T) {
	restoreDefault(t)

	buf := &bytes.Buffer{}
	cfg := DefaultConfig()
	cfg.ComponentLevels["core/nodebase"] = slog.LevelDebug
	Install(cfg, buf)

	log.Logger("core/nodebase").Debug("node ready", "node", "/talker")
	log.Logger("core/graphsignal").Debug("suppressed")
	log.Logger("core/graphsignal").Info("guard condition ready")

	out := buf.String()
	assert.Contains(t, out, "node ready")
	assert.Contains(t, out, "component=core/nodebase")
	assert.Contains(t, out, "level=debug")
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "guard condition ready")
}

func TestInstall_JSON(t *testing.T) {
	restoreDefault(t)

	buf := &bytes.Buffer{}
	cfg := DefaultConfig()
	cfg.Format = FormatJSON
	Install(cfg, buf)

	log.Logger("core/rtcontext").Info("shutdown", "reason", "test")
	assert.Contains(t, buf.String(), `"component":"core/rtcontext"`)
	assert.Contains(t, buf.String(), `"ts":`)
}

func TestSetLevel(t *testing.T) {
	restoreDefault(t)

	buf := &bytes.Buffer{}
	Install(DefaultConfig(), buf)

	l := log.Logger("core/nodehandle")
	l.Debug("before")
	SetLevel("core/nodehandle", slog.LevelDebug)
	l.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")

	SetLevel("", slog.LevelError)
	slog.Info("unbound info")
	assert.NotContains(t, buf.String(), "unbound info")
}

func TestDiscard(t *testing.T) {
	l := Discard()
	require.NotNil(t, l)
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
