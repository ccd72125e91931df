// Package gateway accepts client connections on the line protocol and routes
// each request to the Docker daemon.
//
// Admission is bounded by a weighted semaphore sized to max_connections: the
// accept loop takes a slot before accepting and the handler returns it when
// the connection is done. Every handler reads one request, replies with
// listing output, session bytes, or a fixed message, and always finishes with
// the protocol trailer before closing the connection.
package gateway
