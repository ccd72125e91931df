package transport

import (
	"errors"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		host    string
		network string
		address string
	}{
		{"unix:///var/run/docker.sock", "unix", "/var/run/docker.sock"},
		{"tcp://192.168.59.103:2376", "tcp", "192.168.59.103:2376"},
		{"tcp://docker.local", "tcp", "docker.local:2376"},
		{"tcp://:2375", "tcp", "127.0.0.1:2375"},
		{"tcp://10.0.0.1:2375/", "tcp", "10.0.0.1:2375"},
		{"  tcp://10.0.0.1:2375  ", "tcp", "10.0.0.1:2375"},
	}
	for _, tc := range cases {
		t.Run(tc.host, func(t *testing.T) {
			endpoint, err := ParseEndpoint(tc.host, 2376)
			if err != nil {
				t.Fatalf("ParseEndpoint(%q) error: %v", tc.host, err)
			}
			if endpoint.Network != tc.network || endpoint.Address != tc.address {
				t.Fatalf("ParseEndpoint(%q) = %+v, want %s %s", tc.host, endpoint, tc.network, tc.address)
			}
		})
	}
}

func TestParseEndpointRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"unix://",
		"tcp://",
		"tcp://a:b",
		"tcp://a:1:2",
		"tcp://host:70000",
		"npipe:////./pipe/docker_engine",
		"/var/run/docker.sock",
	}
	for _, host := range cases {
		if _, err := ParseEndpoint(host, 2376); err == nil {
			t.Errorf("ParseEndpoint(%q) expected error", host)
		}
	}
	if _, err := ParseEndpoint("http://x", 2376); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestEndpointString(t *testing.T) {
	endpoint := Endpoint{Network: "unix", Address: "/tmp/d.sock"}
	if got := endpoint.String(); got != "unix:///tmp/d.sock" {
		t.Fatalf("unexpected endpoint string %q", got)
	}
}
