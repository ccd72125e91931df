package ipc

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		raw  string
		want Command
	}{
		{"containers:", Command{Task: TaskContainers}},
		{"containers:\r\n", Command{Task: TaskContainers}},
		{"  CONTAINERS:  ", Command{Task: TaskContainers}},
		{"shell:abc123", Command{Task: TaskShell, Arg: "abc123"}},
		{"Shell: MyContainer\n", Command{Task: TaskShell, Arg: "MyContainer"}},
		{"shell:host:8080", Command{Task: TaskShell, Arg: "host:8080"}},
	}
	for _, tc := range cases {
		got, err := ParseCommand([]byte(tc.raw))
		if err != nil {
			t.Errorf("ParseCommand(%q) error: %v", tc.raw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
}

func TestParseCommandUsageErrors(t *testing.T) {
	cases := []struct {
		raw     string
		wantErr error
		message string
	}{
		{"", ErrEmptyRequest, "Don't know how to handle an empty request."},
		{"bogus", ErrMissingSeparator, "Task request must contain ':' (e.g., 'containers:' or 'shell:foo')"},
		{"\n", ErrMissingSeparator, MsgMissingSeparator},
		{"shell:", ErrMissingContainerID, MsgMissingContainerID},
		{"shell:   \r\n", ErrMissingContainerID, MsgMissingContainerID},
	}
	for _, tc := range cases {
		_, err := ParseCommand([]byte(tc.raw))
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("ParseCommand(%q) error = %v, want %v", tc.raw, err, tc.wantErr)
		}
		if got := UsageMessage(err); got != tc.message {
			t.Errorf("UsageMessage for %q = %q, want %q", tc.raw, got, tc.message)
		}
	}
}

func TestParseCommandUnknownTask(t *testing.T) {
	_, err := ParseCommand([]byte("images:all\r\n"))
	var unknown *UnknownTaskError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTaskError, got %v", err)
	}
	if got := UsageMessage(err); got != "Invalid task 'images:all' requested." {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestUsageMessageIgnoresOtherErrors(t *testing.T) {
	if UsageMessage(nil) != "" || UsageMessage(errors.New("dial failed")) != "" {
		t.Fatal("expected no usage message for non-usage errors")
	}
	if got := FailureMessage(errors.New("dial failed")); got != "Error: dial failed" {
		t.Fatalf("unexpected failure message %q", got)
	}
}

func TestCommandString(t *testing.T) {
	if got := Containers().String(); got != "containers:" {
		t.Fatalf("unexpected wire form %q", got)
	}
	if got := Shell(" web ").String(); got != "shell:web" {
		t.Fatalf("unexpected wire form %q", got)
	}
}
