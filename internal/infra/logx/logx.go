package logx

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New 构造 zerolog.Logger。
//
// - console=true：人类可读格式（交互终端）
// - console=false：JSON lines（便于重定向与采集）
// - level 无法解析时回退为 info
func New(w io.Writer, level string, console bool) zerolog.Logger {
	lvl := ParseLevel(level)

	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// ParseLevel 把字符串解析为日志级别；空串或无法识别时返回 InfoLevel。
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ValidLevel 判断 level 是否可被识别（空串视为合法，表示默认值）。
func ValidLevel(level string) bool {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return true
	}
	_, err := zerolog.ParseLevel(level)
	return err == nil
}
