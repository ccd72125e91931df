// Package transport opens byte-stream sockets to the Docker daemon.
//
// It parses DOCKER_HOST style addresses (unix:// and tcp://), loads client TLS
// material once at construction, and hands callers a fresh net.Conn per
// exchange. Address and certificate problems surface from ParseEndpoint and
// New so they abort startup instead of failing individual requests.
package transport
