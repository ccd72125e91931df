package dockerapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	readChunkSize  = 1024
	maxHeaderBytes = 64 << 10
	maxChunkSize   = 1 << 30

	// DegradedBodyPlaceholder is appended to the decoded body when chunk
	// decoding fails part way through.
	DegradedBodyPlaceholder = "\nerror decoding chunked body\n"
)

var (
	// ErrMalformedStatus is returned when the status line has no readable code.
	ErrMalformedStatus = errors.New("malformed status line")
	// ErrHeaderTooLarge is returned when no header terminator appears within the limit.
	ErrHeaderTooLarge = errors.New("response header exceeds limit")
	// ErrMalformedContentLength is returned for an unparsable Content-Length value.
	ErrMalformedContentLength = errors.New("malformed content length")
)

var (
	headerTerminator = []byte("\r\n\r\n")
	lineTerminator   = []byte("\r\n")
	contentLengthKey = []byte("Content-Length")
	chunkedMarker    = []byte("Transfer-Encoding: chunked")
)

// Response is a decoded daemon reply. Body never contains chunk framing.
type Response struct {
	StatusCode int
	// Header is the raw header block including the status line and the
	// terminating blank line.
	Header []byte
	Body   []byte

	// Degraded is set when chunk decoding failed. Body then holds whatever
	// was decoded followed by DegradedBodyPlaceholder, and DecodeErr holds
	// the cause.
	Degraded  bool
	DecodeErr error
}

// Success reports whether the status code is one the daemon uses for success.
func (r *Response) Success() bool {
	return r != nil && IsSuccess(r.StatusCode)
}

// IsSuccess classifies 200, 201, and 204 as success.
func IsSuccess(code int) bool {
	switch code {
	case 200, 201, 204:
		return true
	default:
		return false
	}
}

// ReadResponse decodes one response from r.
func ReadResponse(r io.Reader) (*Response, error) {
	resp, _, err := readResponse(r)
	return resp, err
}

// decoder accumulates socket reads in fixed-size increments.
type decoder struct {
	r   io.Reader
	buf []byte
}

func (d *decoder) fill() error {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := d.r.Read(chunk)
		if n > 0 {
			d.buf = append(d.buf, chunk[:n]...)
			return nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
}

// readResponse returns the decoded response and any bytes read past its end.
func readResponse(r io.Reader) (*Response, []byte, error) {
	d := &decoder{r: r}

	headerEnd := -1
	for {
		if idx := bytes.Index(d.buf, headerTerminator); idx >= 0 {
			headerEnd = idx + len(headerTerminator)
			break
		}
		if len(d.buf) > maxHeaderBytes {
			return nil, nil, ErrHeaderTooLarge
		}
		if err := d.fill(); err != nil {
			return nil, nil, fmt.Errorf("read response header: %w", err)
		}
	}

	header := append([]byte(nil), d.buf[:headerEnd]...)
	code, err := parseStatusCode(header)
	if err != nil {
		return nil, nil, err
	}
	resp := &Response{StatusCode: code, Header: header}
	d.buf = d.buf[headerEnd:]

	switch {
	case bytes.Contains(header, contentLengthKey):
		length, err := parseContentLength(header)
		if err != nil {
			return nil, nil, err
		}
		for len(d.buf) < length {
			if err := d.fill(); err != nil {
				return nil, nil, fmt.Errorf("read response body: %w", err)
			}
		}
		resp.Body = append([]byte(nil), d.buf[:length]...)
		return resp, d.buf[length:], nil
	case bytes.Contains(header, chunkedMarker):
		body, rest, err := d.decodeChunked()
		if err != nil {
			resp.Degraded = true
			resp.DecodeErr = err
			body = append(body, DegradedBodyPlaceholder...)
		}
		resp.Body = body
		return resp, rest, nil
	default:
		return resp, d.buf, nil
	}
}

// parseStatusCode reads the three digits at bytes 9-12 of the status line.
func parseStatusCode(header []byte) (int, error) {
	const codeStart, codeEnd = 9, 12
	if len(header) < codeEnd || !bytes.HasPrefix(header, []byte("HTTP/")) || header[codeStart-1] != ' ' {
		return 0, fmt.Errorf("%w: %q", ErrMalformedStatus, firstLine(header))
	}
	code := 0
	for _, c := range header[codeStart:codeEnd] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %q", ErrMalformedStatus, firstLine(header))
		}
		code = code*10 + int(c-'0')
	}
	if code < 100 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedStatus, firstLine(header))
	}
	return code, nil
}

func parseContentLength(header []byte) (int, error) {
	idx := bytes.Index(header, contentLengthKey)
	rest := header[idx+len(contentLengthKey):]
	rest = bytes.TrimLeft(rest, " \t")
	if len(rest) == 0 || rest[0] != ':' {
		return 0, ErrMalformedContentLength
	}
	rest = rest[1:]
	end := bytes.Index(rest, lineTerminator)
	if end < 0 {
		return 0, ErrMalformedContentLength
	}
	length, err := strconv.Atoi(string(bytes.TrimSpace(rest[:end])))
	if err != nil || length < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedContentLength, bytes.TrimSpace(rest[:end]))
	}
	return length, nil
}

// decodeChunked consumes chunks from d.buf, reading more from the socket
// whenever a size line or payload is not fully buffered yet. On error it
// returns the payload decoded so far.
func (d *decoder) decodeChunked() ([]byte, []byte, error) {
	var body []byte
	for {
		lineEnd := bytes.Index(d.buf, lineTerminator)
		if lineEnd < 0 {
			if err := d.fill(); err != nil {
				return body, nil, fmt.Errorf("read chunk size: %w", err)
			}
			continue
		}
		size, err := parseChunkSize(d.buf[:lineEnd])
		if err != nil {
			return body, nil, err
		}
		if size == 0 {
			d.buf = d.buf[lineEnd+len(lineTerminator):]
			if bytes.HasPrefix(d.buf, lineTerminator) {
				d.buf = d.buf[len(lineTerminator):]
			}
			return body, d.buf, nil
		}
		payloadStart := lineEnd + len(lineTerminator)
		payloadEnd := payloadStart + size
		if len(d.buf) < payloadEnd+len(lineTerminator) {
			if err := d.fill(); err != nil {
				return body, nil, fmt.Errorf("read chunk payload: %w", err)
			}
			continue
		}
		if !bytes.Equal(d.buf[payloadEnd:payloadEnd+len(lineTerminator)], lineTerminator) {
			return body, nil, errors.New("chunk payload not terminated by CRLF")
		}
		body = append(body, d.buf[payloadStart:payloadEnd]...)
		d.buf = d.buf[payloadEnd+len(lineTerminator):]
	}
}

func parseChunkSize(line []byte) (int, error) {
	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = bytes.TrimSpace(line)
	size, err := strconv.ParseInt(string(line), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q", line)
	}
	if size < 0 || size > maxChunkSize {
		return 0, fmt.Errorf("chunk size %d out of range", size)
	}
	return int(size), nil
}

func firstLine(header []byte) []byte {
	if idx := bytes.Index(header, lineTerminator); idx >= 0 {
		return header[:idx]
	}
	return header
}
