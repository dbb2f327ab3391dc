package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
	"go.trai.ch/bootdrive/internal/ui/output"
	"go.trai.ch/bootdrive/internal/ui/style"
)

// locationKeys name the attributes that point into the drive, in the order
// they are preferred as the location of a record.
var locationKeys = []string{"module", "path", "entry", "dir"}

// PrettyHandler is a slog.Handler for terminals. A record prints as its level
// icon, the message, the drive location it concerns and the remaining
// attributes as key=value pairs.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or stderr when w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{out: output.New(w), level: level}
}

// Enabled implements slog.Handler.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	icon, color := levelStyle(r.Level)

	fields := slices.Clone(h.attrs)
	r.Attrs(func(attr slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, attr)
		return true
	})

	var sb strings.Builder
	line := r.Message
	if icon != "" {
		line = icon + " " + line
	}
	sb.WriteString(h.out.String(line).Foreground(color).String())

	if i := locationIndex(fields); i >= 0 {
		loc := formatValue(fields[i].Value)
		fields = slices.Delete(fields, i, i+1)
		sb.WriteString(" ")
		sb.WriteString(h.out.String(loc).Foreground(termenv.RGBColor(string(style.Iris))).Underline().String())
	}

	for _, f := range fields {
		sb.WriteString(" ")
		sb.WriteString(h.out.String(f.Key + "=").Faint().String())
		sb.WriteString(formatValue(f.Value))
	}
	sb.WriteString("\n")

	_, err := h.out.WriteString(sb.String())
	return err
}

// WithAttrs implements slog.Handler.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = slices.Clone(h.attrs)
	for _, attr := range attrs {
		next.attrs = appendAttr(next.attrs, h.prefix, attr)
	}
	return &next
}

// WithGroup implements slog.Handler. Groups nest, so keys are qualified by
// every open group.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func levelStyle(level slog.Level) (string, termenv.Color) {
	switch {
	case level >= slog.LevelError:
		return style.Cross, termenv.RGBColor(string(style.Red))
	case level >= slog.LevelWarn:
		return style.Warning, termenv.RGBColor(string(style.Yellow))
	case level >= slog.LevelInfo:
		return "", termenv.RGBColor(string(style.Slate))
	default:
		return style.Circle, termenv.RGBColor(string(style.Iris))
	}
}

// appendAttr resolves attr and flattens groups into qualified keys.
// Empty attributes are dropped.
func appendAttr(dst []slog.Attr, prefix string, attr slog.Attr) []slog.Attr {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		inner := prefix
		if attr.Key != "" {
			inner += attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			dst = appendAttr(dst, inner, a)
		}
		return dst
	}
	attr.Key = prefix + attr.Key
	return append(dst, attr)
}

// locationIndex returns the index of the attribute shown as the record's
// location. Only ungrouped keys qualify.
func locationIndex(fields []slog.Attr) int {
	for _, key := range locationKeys {
		for i, f := range fields {
			if f.Key == key && f.Value.Kind() == slog.KindString && f.Value.String() != "" {
				return i
			}
		}
	}
	return -1
}

// formatValue quotes strings that would not read back as a single field.
func formatValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && (s == "" || strings.ContainsAny(s, " \t\n\"=")) {
		return strconv.Quote(s)
	}
	return s
}
