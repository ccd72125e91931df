package dockerapi

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
)

// StatusError reports a response whose status code is not a success code.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Header     []byte
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: daemon responded %d", e.Method, e.Path, e.StatusCode)
	if detail := e.Message(); detail != "" {
		return msg + ": " + detail
	}
	return msg + ": " + string(bytes.TrimSpace(e.Header))
}

// Message returns the daemon's error message from a JSON body, if any.
func (e *StatusError) Message() string {
	if len(e.Body) == 0 || !gjson.ValidBytes(e.Body) {
		return ""
	}
	return gjson.GetBytes(e.Body, "message").String()
}
