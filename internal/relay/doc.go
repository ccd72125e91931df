// Package relay pumps bytes between a gateway client and an attached daemon
// stream until either side finishes.
//
// Each direction runs in its own goroutine and reads at most a fixed number
// of bytes per call, forwarding them unchanged and in order. When either
// direction ends, the daemon stream is closed and the client read is
// interrupted so the opposite pump unblocks and no goroutine outlives the
// session. The client connection itself stays open for the caller.
package relay
