package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const shortIDLength = 8

// consoleSink is shared by a handler and every handler derived from it so
// concurrent connections never interleave partial lines.
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *consoleSink) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

// consoleHandler renders records for a human watching the gateway terminal:
// one header line per record followed by an indented field list.
type consoleHandler struct {
	sink   *consoleSink
	level  *slog.LevelVar
	source bool
	preset []kv
	groups []string
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{sink: &consoleSink{w: w}, level: lvl, source: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	fields := make([]kv, len(h.preset), len(h.preset)+record.NumAttrs())
	copy(fields, h.preset)
	record.Attrs(func(attr slog.Attr) bool {
		fields = flatten(fields, h.groups, attr)
		return true
	})

	entry := consoleEntry{record: record}
	entry.absorb(lastWins(fields))

	var buf bytes.Buffer
	entry.writeHeader(&buf, h.source)
	if record.Level < slog.LevelInfo {
		entry.writeAllFields(&buf)
	} else {
		entry.writeHighlights(&buf)
	}
	return h.sink.write(buf.Bytes())
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = cloneKVs(h.preset, len(attrs))
	for _, attr := range attrs {
		next.preset = flatten(next.preset, h.groups, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

// consoleEntry is one record split into its header parts and remaining fields.
type consoleEntry struct {
	record    slog.Record
	component string
	connID    string
	task      string
	fields    []kv
}

func (e *consoleEntry) absorb(fields []kv) {
	e.fields = fields[:0:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			e.component = plainString(f.value)
			continue
		case FieldCorrelationID:
			e.connID = plainString(f.value)
		case FieldTask:
			e.task = plainString(f.value)
		}
		e.fields = append(e.fields, f)
	}
}

func (e *consoleEntry) writeHeader(buf *bytes.Buffer, withSource bool) {
	buf.WriteString(consoleTime(e.record.Time))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(e.record.Level))
	if e.component != "" {
		buf.WriteString(" [" + e.component + "]")
	}
	if subject := composeSubject(e.connID, e.task); subject != "" {
		buf.WriteString(" " + subject)
	}
	msg := strings.TrimSpace(e.record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	buf.WriteString(" – " + msg)
	if withSource {
		if src := e.record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')
}

func (e *consoleEntry) writeHighlights(buf *bytes.Buffer) {
	shown, hidden := selectInfoFields(e.fields, infoAttrLimit, false)
	for _, f := range shown {
		buf.WriteString("    - " + f.label + ": " + f.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func (e *consoleEntry) writeAllFields(buf *bytes.Buffer) {
	for _, f := range e.fields {
		buf.WriteString("    " + f.key + ": " + renderValue(f.value) + "\n")
	}
}

// composeSubject renders "conn 1a2b3c4d (shell)" from the correlation id and task.
func composeSubject(connID, task string) string {
	connID = strings.TrimSpace(connID)
	task = strings.TrimSpace(task)
	if len(connID) > shortIDLength {
		connID = connID[:shortIDLength]
	}
	switch {
	case connID != "" && task != "":
		return "conn " + connID + " (" + task + ")"
	case connID != "":
		return "conn " + connID
	default:
		return task
	}
}

type kv struct {
	key   string
	value slog.Value
}

func cloneKVs(src []kv, extra int) []kv {
	out := make([]kv, len(src), len(src)+extra)
	copy(out, src)
	return out
}

// flatten appends attr to dst, expanding groups into dotted keys.
func flatten(dst []kv, groups []string, attr slog.Attr) []kv {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		if len(members) == 0 {
			return dst
		}
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range members {
			dst = flatten(dst, inner, member)
		}
		return dst
	}
	if attr.Key == "" {
		return dst
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return append(dst, kv{key: key, value: attr.Value})
}

// lastWins drops repeated keys, keeping the first position and the last value.
func lastWins(fields []kv) []kv {
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if i, seen := index[f.key]; seen {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
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
