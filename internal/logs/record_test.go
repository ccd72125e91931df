package logs_test

import (
	"strings"
	"testing"
	"time"

	"dockerps/internal/logs"
)

func TestParseRecord(t *testing.T) {
	rec, ok := logs.ParseRecord(lineFail)
	if !ok {
		t.Fatal("expected record to parse")
	}
	if rec.Level != "warn" || rec.Message != "daemon request failed" || rec.Component != "gateway" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.CorrelationID != "0123456789ab" {
		t.Fatalf("unexpected correlation id %q", rec.CorrelationID)
	}
	if !rec.Time.Equal(time.Date(2026, 3, 1, 10, 0, 2, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", rec.Time)
	}

	for _, line := range []string{"", "plain text", `["array"]`, `{"broken":`} {
		if _, ok := logs.ParseRecord(line); ok {
			t.Fatalf("expected %q to be rejected", line)
		}
	}
}

func TestFilterMatch(t *testing.T) {
	accept, _ := logs.ParseRecord(lineAccept)
	fail, _ := logs.ParseRecord(lineFail)

	tests := []struct {
		name   string
		filter logs.Filter
		rec    logs.Record
		want   bool
	}{
		{"empty", logs.Filter{}, accept, true},
		{"level below", logs.Filter{MinLevel: "info"}, accept, false},
		{"level at", logs.Filter{MinLevel: "WARN"}, fail, true},
		{"unknown level ignored", logs.Filter{MinLevel: "verbose"}, accept, true},
		{"component", logs.Filter{Component: "Gateway"}, accept, true},
		{"other component", logs.Filter{Component: "relay"}, accept, false},
		{"conn prefix", logs.Filter{CorrelationID: "0123"}, fail, true},
		{"conn mismatch", logs.Filter{CorrelationID: "ffff"}, fail, false},
		{"search", logs.Filter{Search: "NO SUCH FILE"}, fail, true},
		{"search miss", logs.Filter{Search: "timeout"}, fail, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.rec); got != tt.want {
				t.Fatalf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	rec, _ := logs.ParseRecord(lineOther)
	got := logs.Format(rec)

	for _, want := range []string{"INFO ", "[gateway]", "conn ffff0000", "– shell session finished", "daemon_bytes=42"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "ffff0000aaaa") || strings.Contains(got, "msg=") {
		t.Fatalf("header fields repeated in %q", got)
	}

	bare := logs.Format(logs.Record{Raw: `{}`})
	if bare != "INFO " {
		t.Fatalf("unexpected bare format %q", bare)
	}
}
