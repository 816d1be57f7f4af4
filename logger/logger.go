package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Mode uint8

const (
	ModeDev Mode = iota
	ModeProd
	ModeSilence
)

var modeNames = map[string]Mode{
	"dev":     ModeDev,
	"prod":    ModeProd,
	"silence": ModeSilence,
}

// ParseMode maps the mode names used in the config file.
func ParseMode(s string) (Mode, error) {
	m, ok := modeNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown log mode %q", s)
	}
	return m, nil
}

func (m Mode) String() string {
	for name, v := range modeNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// New returns a logger writing to w. Dev is text at debug level, prod is JSON at
// info level and silence discards everything.
//
// The client draws on the terminal, so it passes a file rather than stdout.
func New(mode Mode, w io.Writer) *slog.Logger {
	switch mode {
	case ModeProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case ModeSilence:
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
