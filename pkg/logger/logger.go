package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	timeColor      = color.New(color.Faint)
	requestIDColor = color.New(color.FgMagenta)
	userIDColor    = color.New(color.FgBlue)
	keyColor       = color.New(color.FgCyan)
	errKeyColor    = color.New(color.FgRed)

	levelLabels = map[slog.Level]string{
		slog.LevelDebug: color.New(color.BgCyan, color.FgHiWhite).Sprint("DEBUG"),
		slog.LevelInfo:  color.New(color.BgGreen, color.FgHiWhite).Sprint("INFO "),
		slog.LevelWarn:  color.New(color.BgYellow, color.FgHiWhite).Sprint("WARN "),
		slog.LevelError: color.New(color.BgRed, color.FgHiWhite).Sprint("ERROR"),
	}
)

// Handler writes one colored line per record, prefixed with the update id and user id
// found in the context.
type Handler struct {
	groups []string
	attrs  []slog.Attr

	opts Options

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler creates a new Handler with the specified options. If opts is nil, uses [DefaultOptions].
func NewHandler(out io.Writer, opts *Options) *Handler {
	h := &Handler{out: out, mu: &sync.Mutex{}}
	if opts == nil {
		h.opts = *DefaultOptions
	} else {
		h.opts = *opts
	}
	return h
}

func (h *Handler) clone() *Handler {
	return &Handler{
		groups: h.groups,
		attrs:  h.attrs,
		opts:   h.opts,
		mu:     h.mu,
		out:    h.out,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var bf bytes.Buffer

	if !r.Time.IsZero() {
		fmt.Fprint(&bf, timeColor.Sprint(r.Time.Format(h.opts.TimeFormat)), " ")
	}
	if requestID, ok := RequestIDFromContext(ctx); ok {
		fmt.Fprint(&bf, requestIDColor.Sprintf("%d ", requestID))
	}
	if userID, ok := UserIDFromContext(ctx); ok {
		fmt.Fprint(&bf, userIDColor.Sprintf("u%d ", userID))
	}

	label, ok := levelLabels[r.Level]
	if !ok {
		label = r.Level.String()
	}
	fmt.Fprint(&bf, label, " ")

	if h.opts.AddSource && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fmt.Fprintf(&bf, "%s:%d ", filepath.Base(f.File), f.Line)
	}

	fmt.Fprint(&bf, h.opts.MsgPrefix, r.Message)

	prefix := ""
	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}
	writeAttr := func(a slog.Attr) {
		c := keyColor
		if strings.Contains(a.Key, "err") {
			c = errKeyColor
		}
		fmt.Fprint(&bf, " ", c.Sprintf("%s%s=", prefix, a.Key), a.Value.String())
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})

	bf.WriteByte('\n')

	out := bf.Bytes()
	if h.opts.NoColor {
		out = ansi.ReplaceAll(out, nil)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(out)
	return err
}

func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := h.clone()
	h2.groups = append(append([]string(nil), h.groups...), name)
	return h2
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	h2.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return h2
}

var ansi = regexp.MustCompile("\u001B\\[[0-9;]*m")

var DefaultOptions = &Options{
	Level:      slog.LevelInfo,
	TimeFormat: time.DateTime,
	AddSource:  true,
	MsgPrefix:  color.HiWhiteString("| "),
}

type Options struct {
	// Level reports the minimum level to log.
	Level slog.Leveler

	TimeFormat string

	// AddSource prints file:line of the call site.
	AddSource bool

	// MsgPrefix is printed before the message.
	MsgPrefix string

	// NoColor strips ANSI colors from the output.
	NoColor bool
}

// NewOptions derives handler options from textual settings, falling back to DefaultOptions.
func NewOptions(level string, noColor bool) *Options {
	opts := *DefaultOptions
	opts.NoColor = noColor

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err == nil {
		opts.Level = lvl
	}
	return &opts
}
