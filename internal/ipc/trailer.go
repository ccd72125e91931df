package ipc

import (
	"bytes"
	"errors"
	"io"
)

// ErrMissingTrailer is returned when a reply ends without the trailer, which
// means the gateway connection dropped mid-reply.
var ErrMissingTrailer = errors.New("reply ended without trailer")

// ReadReply reads r to EOF and returns the reply without its trailer.
func ReadReply(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return data, err
	}
	body, ok := bytes.CutSuffix(data, []byte(Trailer))
	if !ok {
		return data, ErrMissingTrailer
	}
	return body, nil
}

// TrailerWriter forwards a streamed reply to w and drops the final trailer.
// Only bytes that could begin the trailer are held back, so interactive
// output passes through without delay.
type TrailerWriter struct {
	w    io.Writer
	held []byte
}

// NewTrailerWriter wraps w.
func NewTrailerWriter(w io.Writer) *TrailerWriter {
	return &TrailerWriter{w: w}
}

// Write forwards p, holding back any suffix that is a prefix of the trailer.
func (t *TrailerWriter) Write(p []byte) (int, error) {
	combined := append(t.held, p...)
	keep := trailerPrefixLen(combined)
	if out := combined[:len(combined)-keep]; len(out) > 0 {
		if _, err := t.w.Write(out); err != nil {
			return 0, err
		}
	}
	t.held = append([]byte(nil), combined[len(combined)-keep:]...)
	return len(p), nil
}

// Close flushes held bytes unless they form the complete trailer.
// It reports whether the trailer was seen.
func (t *TrailerWriter) Close() (bool, error) {
	held := t.held
	t.held = nil
	if string(held) == Trailer {
		return true, nil
	}
	if len(held) == 0 {
		return false, nil
	}
	_, err := t.w.Write(held)
	return false, err
}

// trailerPrefixLen returns the length of the longest suffix of b that is a
// prefix of Trailer.
func trailerPrefixLen(b []byte) int {
	limit := min(len(Trailer), len(b))
	for n := limit; n > 0; n-- {
		if bytes.Equal(b[len(b)-n:], []byte(Trailer[:n])) {
			return n
		}
	}
	return 0
}
