package logger

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

const textTimeLayout = "2006-01-02 15:04:05.000"

// textHandler writes one line per record:
//
//	2026-01-02 15:04:05.000 INFO  message key=value group.key="quoted value"
//
// Attributes bound with WithAttrs are rendered once and reused; groups
// become dotted key prefixes.
type textHandler struct {
	opts   slog.HandlerOptions
	w      io.Writer
	mu     *sync.Mutex
	color  bool
	pre    []byte // rendered WithAttrs attributes
	prefix string // open groups, "a.b."
}

func newTextHandler(w io.Writer, opts *slog.HandlerOptions, useColor bool) *textHandler {
	h := &textHandler{w: w, mu: &sync.Mutex{}, color: useColor}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return l >= minLevel
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)

	t := r.Time
	if t.IsZero() {
		t = time.Now()
	}
	buf = t.AppendFormat(buf, textTimeLayout)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	buf = append(buf, h.pre...)

	r.Attrs(func(a slog.Attr) bool {
		buf = h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf)
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		c.pre = c.appendAttr(c.pre, c.prefix, a)
	}
	return c
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.prefix += name + "."
	return c
}

func (h *textHandler) clone() *textHandler {
	c := *h
	c.pre = append([]byte(nil), h.pre...)
	return &c
}

// appendLevel writes the level padded to five columns.
func (h *textHandler) appendLevel(buf []byte, l slog.Level) []byte {
	var name, c string
	switch {
	case l < slog.LevelInfo:
		name, c = "DEBUG", colorGray
	case l < slog.LevelWarn:
		name, c = "INFO ", colorGreen
	case l < slog.LevelError:
		name, c = "WARN ", colorYellow
	default:
		name, c = "ERROR", colorRed
	}
	if !h.color {
		return append(buf, name...)
	}
	buf = append(buf, c...)
	buf = append(buf, name...)
	return append(buf, colorReset...)
}

func (h *textHandler) appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return buf
		}
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range group {
			buf = h.appendAttr(buf, prefix, ga)
		}
		return buf
	}

	buf = append(buf, ' ')
	key := prefix + a.Key
	if h.color {
		keyColor := colorCyan
		if a.Key == KeyError {
			keyColor = colorRed
		}
		buf = append(buf, keyColor...)
		buf = append(buf, key...)
		buf = append(buf, colorReset...)
	} else {
		buf = append(buf, key...)
	}
	buf = append(buf, '=')
	return appendValue(buf, a.Value)
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendString(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', 3, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			return appendString(buf, err.Error())
		}
		return appendString(buf, v.String())
	}
}

// appendString quotes values that would otherwise break key=value parsing.
func appendString(buf []byte, s string) []byte {
	if s == "" || strings.ContainsAny(s, " \t\n\r\"=") {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}
