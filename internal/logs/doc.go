// Package logs reads the gateway's JSON log file for `dockerps logs`.
//
// Tail returns the last N matching records or everything written after a
// byte offset, optionally waiting for new lines in follow mode. Records are
// decoded lazily with gjson so unknown attributes pass through untouched, and
// a Filter narrows output to one connection, component, or minimum level.
package logs
