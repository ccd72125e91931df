package logs

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"dockerps/internal/logging"
)

// Record is one decoded line of the JSON log file.
type Record struct {
	Time          time.Time
	Level         string
	Message       string
	Component     string
	CorrelationID string
	Raw           string
}

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// ParseRecord decodes line. Lines that are not JSON objects are reported as
// not ok.
func ParseRecord(line string) (Record, bool) {
	if !gjson.Valid(line) {
		return Record{}, false
	}
	parsed := gjson.Parse(line)
	if !parsed.IsObject() {
		return Record{}, false
	}
	fields := gjson.GetMany(line, "ts", "level", "msg", logging.FieldComponent, logging.FieldCorrelationID)
	rec := Record{
		Level:         strings.ToLower(fields[1].String()),
		Message:       fields[2].String(),
		Component:     fields[3].String(),
		CorrelationID: fields[4].String(),
		Raw:           line,
	}
	if ts, err := time.Parse(time.RFC3339, fields[0].String()); err == nil {
		rec.Time = ts
	}
	return rec, true
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	MinLevel      string
	Component     string
	CorrelationID string
	Search        string
}

// Empty reports whether f matches every record.
func (f Filter) Empty() bool {
	return f == Filter{}
}

// Match reports whether rec passes every set criterion. CorrelationID
// matches by prefix so the short ids shown on the console work.
func (f Filter) Match(rec Record) bool {
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[rec.Level] < want {
			return false
		}
	}
	if f.Component != "" && !strings.EqualFold(rec.Component, f.Component) {
		return false
	}
	if f.CorrelationID != "" && !strings.HasPrefix(rec.CorrelationID, f.CorrelationID) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(rec.Raw), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// matchLine applies f to a raw line. Undecodable lines only pass an empty
// filter.
func (f Filter) matchLine(line string) bool {
	if f.Empty() {
		return true
	}
	rec, ok := ParseRecord(line)
	return ok && f.Match(rec)
}

var headerKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "source": {},
	logging.FieldComponent: {}, logging.FieldCorrelationID: {},
}

// Format renders rec as a single human-readable line:
// time, level, component, short connection id, message, then the remaining
// attributes as sorted key=value pairs.
func Format(rec Record) string {
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(rec.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	level := strings.ToUpper(rec.Level)
	if level == "" {
		level = "INFO"
	}
	fmt.Fprintf(&b, "%-5s", level)
	if rec.Component != "" {
		fmt.Fprintf(&b, " [%s]", rec.Component)
	}
	if id := rec.CorrelationID; id != "" {
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(&b, " conn %s", id)
	}
	if rec.Message != "" {
		b.WriteString(" – ")
		b.WriteString(rec.Message)
	}

	var extras []string
	gjson.Parse(rec.Raw).ForEach(func(key, value gjson.Result) bool {
		if _, skip := headerKeys[key.String()]; !skip {
			extras = append(extras, key.String()+"="+value.String())
		}
		return true
	})
	sort.Strings(extras)
	for _, kv := range extras {
		b.WriteByte(' ')
		b.WriteString(kv)
	}
	return b.String()
}
