// Package ipc defines the client-facing line protocol of the gateway and
// ships the matching client used by the CLI.
//
// A client writes one request of the form "task:argument", the gateway
// answers with the task output, and every reply ends with the CRLF CRLF
// trailer followed by connection close. The package owns command decoding,
// the fixed usage messages, and trailer handling so the gateway and the CLI
// agree on the wire format.
package ipc
