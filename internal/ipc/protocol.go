package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Trailer terminates every gateway reply.
const Trailer = "\r\n\r\n"

// MaxRequestSize bounds the single read that carries a request.
const MaxRequestSize = 1024

// Supported tasks.
const (
	TaskContainers = "containers"
	TaskShell      = "shell"
)

// Fixed replies for requests the gateway cannot route.
const (
	MsgEmptyRequest       = "Don't know how to handle an empty request."
	MsgMissingSeparator   = "Task request must contain ':' (e.g., 'containers:' or 'shell:foo')"
	MsgMissingContainerID = "Task 'shell' requires a container id (e.g., 'shell:foo')"
	invalidTaskFormat     = "Invalid task '%s' requested."
)

var (
	// ErrEmptyRequest is returned when the client sent no bytes.
	ErrEmptyRequest = errors.New("empty request")
	// ErrMissingSeparator is returned when the request has no ':'.
	ErrMissingSeparator = errors.New("request missing ':' separator")
	// ErrMissingContainerID is returned for "shell:" without an id.
	ErrMissingContainerID = errors.New("shell request missing container id")
)

// UnknownTaskError reports a well-formed request naming an unsupported task.
type UnknownTaskError struct {
	Input string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("unknown task in request %q", e.Input)
}

// Command is one decoded client request.
type Command struct {
	Task string
	Arg  string
}

// String renders the wire form of c.
func (c Command) String() string {
	return c.Task + ":" + c.Arg
}

// Containers builds the listing request.
func Containers() Command {
	return Command{Task: TaskContainers}
}

// Shell builds the interactive session request for containerID.
func Shell(containerID string) Command {
	return Command{Task: TaskShell, Arg: strings.TrimSpace(containerID)}
}

// ParseCommand decodes raw request bytes. The request is trimmed and split
// on its first ':'; the task is matched case-insensitively while the argument
// keeps its case.
func ParseCommand(raw []byte) (Command, error) {
	if len(raw) == 0 {
		return Command{}, ErrEmptyRequest
	}
	trimmed := string(bytes.TrimSpace(raw))
	task, arg, ok := strings.Cut(trimmed, ":")
	if !ok {
		return Command{}, ErrMissingSeparator
	}
	cmd := Command{
		Task: strings.ToLower(strings.TrimSpace(task)),
		Arg:  strings.TrimSpace(arg),
	}
	switch cmd.Task {
	case TaskContainers:
		return cmd, nil
	case TaskShell:
		if cmd.Arg == "" {
			return cmd, ErrMissingContainerID
		}
		return cmd, nil
	default:
		return cmd, &UnknownTaskError{Input: trimmed}
	}
}

// UsageMessage returns the fixed reply for a ParseCommand error, or "" when
// err is not a usage error.
func UsageMessage(err error) string {
	var unknown *UnknownTaskError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyRequest):
		return MsgEmptyRequest
	case errors.Is(err, ErrMissingSeparator):
		return MsgMissingSeparator
	case errors.Is(err, ErrMissingContainerID):
		return MsgMissingContainerID
	case errors.As(err, &unknown):
		return fmt.Sprintf(invalidTaskFormat, unknown.Input)
	default:
		return ""
	}
}

// FailureMessage renders a backend failure for the client.
func FailureMessage(err error) string {
	return "Error: " + err.Error()
}
