package logging

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	"listen",
	"docker_host",
	FieldRemoteAddr,
	FieldContainerID,
	"exec_id",
	"status",
	"error",
	FieldErrorHint,
	FieldImpact,
	"client_bytes",
	"daemon_bytes",
	"body_bytes",
	"containers",
	"relay_duration",
	"active_connections",
	"max_connections",
	"reason",
}

// selectInfoFields picks the fields shown under an info-level header.
// Highlight keys come first in their listed order, then the rest in record
// order. limit=0 means no limit. Debug-only keys and oversized values are
// counted as hidden unless includeDebug is set.
func selectInfoFields(attrs []kv, limit int, includeDebug bool) ([]infoField, int) {
	ordered := make([]kv, 0, len(attrs))
	for _, key := range infoHighlightKeys {
		for _, attr := range attrs {
			if attr.key == key {
				ordered = append(ordered, attr)
				break
			}
		}
	}
	for _, attr := range attrs {
		if !slices.Contains(infoHighlightKeys, attr.key) {
			ordered = append(ordered, attr)
		}
	}

	var shown []infoField
	hidden := 0
	for _, attr := range ordered {
		if skipInfoKey(attr.key) {
			continue
		}
		val := formatValueForKey(attr.key, attr.value)
		switch {
		case !includeDebug && (isDebugOnlyKey(attr.key) || shouldHideInfoValue(attr.key, val)):
			hidden++
		case limit > 0 && len(shown) >= limit:
			hidden++
		default:
			shown = append(shown, infoField{label: displayLabel(attr.key), value: val})
		}
	}
	return shown, hidden
}

// formatValueForKey renders byte counts and durations for people and keeps
// error strings to a readable length.
func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case isByteSizeKey(key) && v.Kind() == slog.KindInt64:
		return formatBytes(v.Int64())
	case isByteSizeKey(key) && v.Kind() == slog.KindUint64:
		return formatBytes(int64(v.Uint64()))
	case isDurationKey(key) && v.Kind() == slog.KindDuration:
		return formatDurationHuman(v.Duration())
	case v.Kind() == slog.KindBool && v.Bool():
		return "yes"
	case v.Kind() == slog.KindBool:
		return "no"
	case key == "error":
		return truncateErrorValue(plainString(v))
	default:
		return renderValue(v)
	}
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes")
}

func isDurationKey(key string) bool {
	return strings.HasSuffix(key, "_duration") ||
		strings.HasSuffix(key, "_elapsed") ||
		key == "elapsed" ||
		key == "duration"
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDurationHuman(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldTask:
		return true
	default:
		return false
	}
}

func isDebugOnlyKey(key string) bool {
	switch key {
	case "", FieldCorrelationID, FieldRunID, "cert_path", "runtime_dir", "config_path":
		return true
	}
	return strings.HasSuffix(key, "_path")
}

func shouldHideInfoValue(key, value string) bool {
	switch key {
	case "error", FieldErrorHint:
		return false
	}
	return len(value) > 120
}

func displayLabel(key string) string {
	switch key {
	case FieldAlert:
		return "Alert"
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldRemoteAddr:
		return "Client"
	case FieldContainerID:
		return "Container"
	case "exec_id":
		return "Exec"
	case "docker_host":
		return "Docker"
	case "client_bytes":
		return "From Client"
	case "daemon_bytes":
		return "From Daemon"
	case "relay_duration":
		return "Session"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	if len(parts) == 0 {
		return strings.ToUpper(key[:1]) + strings.ToLower(key[1:])
	}
	for i, part := range parts {
		parts[i] = capitalizeASCII(part)
	}
	return strings.Join(parts, " ")
}

func capitalizeASCII(value string) string {
	switch len(value) {
	case 0:
		return ""
	case 1:
		return strings.ToUpper(value)
	default:
		lower := strings.ToLower(value)
		return strings.ToUpper(lower[:1]) + lower[1:]
	}
}
