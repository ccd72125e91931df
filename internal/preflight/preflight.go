package preflight

import (
	"context"

	"dockerps/internal/config"
	"dockerps/internal/transport"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes all applicable preflight checks for the given config.
// A nil pinger skips the daemon round trip.
func RunAll(ctx context.Context, cfg *config.Config, pinger Pinger) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	endpointResult, endpoint := CheckEndpoint(cfg.Docker.Host, cfg.Docker.DefaultTCPPort)
	results = append(results, endpointResult)

	results = append(results, CheckDirectoryAccess("Runtime directory", cfg.Paths.RuntimeDir))

	if endpointResult.Passed && endpoint.Network == "unix" {
		results = append(results, CheckSocketAccess(endpoint.Address))
	}

	if cfg.Docker.TLSEnabled() {
		results = append(results, CheckTLSMaterial(cfg.Docker.CertFile, cfg.Docker.KeyFile, cfg.Docker.CAFile))
	}

	if pinger != nil && endpointResult.Passed {
		results = append(results, CheckDaemon(ctx, pinger))
	}
	return results
}

// CheckEndpoint verifies that host parses into a supported daemon address.
func CheckEndpoint(host string, defaultPort int) (Result, transport.Endpoint) {
	const name = "Docker host"
	endpoint, err := transport.ParseEndpoint(host, defaultPort)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}, transport.Endpoint{}
	}
	return Result{Name: name, Passed: true, Detail: endpoint.String()}, endpoint
}
