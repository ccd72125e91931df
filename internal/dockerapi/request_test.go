package dockerapi

import (
	"bytes"
	"errors"
	"testing"
)

func TestRequestEncode(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "without body",
			req:  Request{Method: "GET", Path: "/_ping", ContentType: "application/json"},
			want: "GET /_ping HTTP/1.1\r\nContent-Type: application/json\r\n\r\n",
		},
		{
			name: "with body",
			req:  Request{Method: "POST", Path: "/exec/e1/start", ContentType: "application/json", Body: []byte(`{"Detach":false}`)},
			want: "POST /exec/e1/start HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: 16\r\n\r\n{\"Detach\":false}",
		},
		{
			name: "empty non-nil body",
			req:  Request{Method: "DELETE", Path: "/containers/abc", Body: []byte{}},
			want: "DELETE /containers/abc HTTP/1.1\r\nContent-Type: application/json\r\nContent-Length: 0\r\n\r\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := string(tc.req.Encode()); got != tc.want {
				t.Fatalf("Encode() = %q, want %q", got, tc.want)
			}
			var buf bytes.Buffer
			n, err := tc.req.WriteTo(&buf)
			if err != nil {
				t.Fatalf("WriteTo: %v", err)
			}
			if int(n) != len(tc.want) || buf.String() != tc.want {
				t.Fatalf("WriteTo wrote %d bytes %q", n, buf.String())
			}
		})
	}
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest("GET", "/containers/json", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if req.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", req.ContentType)
	}
	if req.Body != nil {
		t.Fatal("expected nil body")
	}

	if _, err := NewRequest("PUT", "/x", nil); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
	if _, err := NewRequest("GET", "containers/json", nil); err == nil {
		t.Fatal("expected error for relative path")
	}
}
