// Package dockerapi speaks the small HTTP/1.1 dialect the Docker daemon
// understands over a raw socket.
//
// Requests carry only a request line, a Content-Type header, and an optional
// Content-Length plus body. Responses are decoded by hand: the header block is
// accumulated in fixed-size reads, the status code is taken from its fixed
// offset in the status line, and the body is framed either by Content-Length
// or by chunked transfer encoding. Chunk decoding tolerates arbitrary
// fragmentation of the underlying socket.
//
// Every exchange runs on its own connection. Client.Do closes it when the
// response has been decoded; Client.Hijack hands it to the caller on success,
// which is how exec sessions obtain their attached stream.
package dockerapi
