package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one line per record:
//
//	2026-01-02T15:04:05Z INFO generate: window labeled episode_index=3 window.start=2 window.end=4
//
// The component attribute is lifted in front of the message.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	component string
	group     string // dotted prefix for record attributes
	preset    []byte // attributes rendered by WithAttrs
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: new(sync.Mutex), w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	component := h.component
	var attrs []byte
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == FieldComponent && h.group == "" {
			component = a.Value.String()
			return true
		}
		attrs = appendAttr(attrs, h.group, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf := make([]byte, 0, 160+len(h.preset)+len(attrs))
	buf = ts.UTC().AppendFormat(buf, time.RFC3339)
	buf = append(buf, ' ')
	buf = append(buf, levelLabel(r.Level)...)
	buf = append(buf, ' ')
	if component != "" {
		buf = append(buf, component...)
		buf = append(buf, ": "...)
	}
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, "(no message)"...)
	}
	if h.addSource && r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf = fmt.Appendf(buf, " [%s:%d]", filepath.Base(frame.File), frame.Line)
	}
	buf = append(buf, h.preset...)
	buf = append(buf, attrs...)
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = slices.Clone(h.preset)
	for _, a := range attrs {
		if a.Key == FieldComponent && h.group == "" {
			clone.component = a.Value.String()
			continue
		}
		clone.preset = appendAttr(clone.preset, h.group, a)
	}
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			buf = appendAttr(buf, prefix, member)
		}
		return buf
	}
	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, a.Key...)
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendText(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			return appendText(buf, err.Error())
		}
		return appendText(buf, fmt.Sprint(v.Any()))
	}
}

func appendText(buf []byte, s string) []byte {
	quote := s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"'
	})
	if quote {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// newJSONHandler emits one object per line with ts/level/msg keys and a short
// caller when source is enabled.
func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		AddSource:   addSource,
		ReplaceAttr: renameJSONKeys,
	})
}

func renameJSONKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		if a.Value.Kind() == slog.KindTime {
			return slog.String("ts", a.Value.Time().UTC().Format(time.RFC3339Nano))
		}
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String("caller", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}
