// Package main hosts the dockerps CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the gateway in the foreground ("serve")
// and acts as a client of a running gateway: "containers" renders the
// daemon's container listing and "shell" attaches the terminal to an
// interactive session. "check" and "status" report on the local
// environment, "logs" reads the gateway's log file, and "config" scaffolds
// and validates the TOML file.
//
// Protocol details live in internal/ipc and the gateway itself in
// internal/gateway; commands here only resolve configuration, dial, and
// render.
package main
