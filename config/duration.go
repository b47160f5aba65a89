package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Duration 配置文件中的时长
//
// 写作 "750ms"、"10s" 等 Go 时长字面量；整数按纳秒处理，null 与 "" 为零。
// 序列化时总是输出字面量形式。
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*d = 0
		return nil
	}

	if len(raw) > 0 && raw[0] == '"' {
		var lit string
		if err := json.Unmarshal(raw, &lit); err != nil {
			return err
		}
		if lit == "" {
			*d = 0
			return nil
		}
		v, err := time.ParseDuration(lit)
		if err != nil {
			return fmt.Errorf("config: bad duration literal %q: %w", lit, err)
		}
		*d = Duration(v)
		return nil
	}

	ns, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("config: duration %s is neither a literal like \"10s\" nor integer nanoseconds", raw)
	}
	*d = Duration(ns)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, d.String()), nil
}

// Duration 转为 time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }
