package dockerapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const defaultContentType = "application/json"

// ErrUnsupportedMethod is returned for methods outside GET, POST, and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported request method")

// Request is an outgoing daemon request. A nil Body means no body is sent.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// NewRequest validates the method and path and applies the default content type.
func NewRequest(method, path string, body []byte) (Request, error) {
	switch method {
	case "GET", "POST", "DELETE":
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	if path == "" || path[0] != '/' {
		return Request{}, fmt.Errorf("request path %q must start with /", path)
	}
	return Request{
		Method:      method,
		Path:        path,
		ContentType: defaultContentType,
		Body:        body,
	}, nil
}

// Encode renders the request line, Content-Type, and optional Content-Length
// and body. No other headers are emitted.
func (r Request) Encode() []byte {
	contentType := r.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	var buf bytes.Buffer
	buf.Grow(64 + len(r.Path) + len(contentType) + len(r.Body))
	buf.WriteString(r.Method)
	buf.WriteByte(' ')
	buf.WriteString(r.Path)
	buf.WriteString(" HTTP/1.1\r\nContent-Type: ")
	buf.WriteString(contentType)
	buf.WriteString("\r\n")
	if r.Body != nil {
		buf.WriteString("Content-Length: ")
		buf.WriteString(strconv.Itoa(len(r.Body)))
		buf.WriteString("\r\n\r\n")
		buf.Write(r.Body)
	} else {
		buf.WriteString("\r\n")
	}
	return buf.Bytes()
}

// WriteTo writes the encoded request to w.
func (r Request) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Encode())
	return int64(n), err
}
