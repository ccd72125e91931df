// Package preflight provides readiness checks for the Docker daemon
// connection and the local paths dockerps depends on.
//
// These checks run in two contexts:
//   - daemonrun calls RunAll before binding the gateway and logs each failure,
//     so a misconfigured daemon address is reported before clients connect.
//   - The CLI "dockerps check" command renders the same results as a
//     status list.
//
// Checks that do not apply to the configured endpoint are skipped: socket
// access only for unix hosts, TLS material only when TLS is enabled.
package preflight
