package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dep2p/go-nodecore"
)

// ============================================================================
//                              环境变量（CLI 专用）
// ============================================================================

// 环境变量名
const (
	EnvPreset     = "NODECORE_PRESET"
	EnvDomainID   = "NODECORE_DOMAIN_ID"
	EnvRemappings = "NODECORE_REMAP"
)

// envOptions 从环境变量构建选项
//
// 支持的环境变量：
//   - NODECORE_PRESET: 预设名称（命令行 -preset 优先）
//   - NODECORE_DOMAIN_ID: 通信域 ID
//   - NODECORE_REMAP: 重映射规则，逗号分隔，格式 [topic:|service:]from:=to
func envOptions() ([]nodecore.Option, error) {
	var opts []nodecore.Option

	if v := os.Getenv(EnvDomainID); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvDomainID, err)
		}
		opts = append(opts, nodecore.WithDomainID(uint32(id)))
	}

	if v := os.Getenv(EnvRemappings); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			kind, from, to, err := parseRemap(part)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", EnvRemappings, err)
			}
			opts = append(opts, nodecore.WithRemapping(kind, from, to))
		}
	}

	return opts, nil
}

// parseRemap 解析单条重映射规则
func parseRemap(s string) (nodecore.RemapKind, string, string, error) {
	kind := nodecore.RemapAny
	switch {
	case strings.HasPrefix(s, "topic:") && !strings.HasPrefix(s, "topic:="):
		kind, s = nodecore.RemapTopic, strings.TrimPrefix(s, "topic:")
	case strings.HasPrefix(s, "service:") && !strings.HasPrefix(s, "service:="):
		kind, s = nodecore.RemapService, strings.TrimPrefix(s, "service:")
	}

	from, to, ok := strings.Cut(s, ":=")
	if !ok || from == "" || to == "" {
		return kind, "", "", fmt.Errorf("invalid remap rule %q", s)
	}
	return kind, from, to, nil
}
