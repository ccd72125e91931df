// Package config loads, normalizes, and validates dockerps configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the Docker client environment
// (DOCKER_HOST, DOCKER_TLS_VERIFY, DOCKER_CERT_PATH) as fallbacks. The Config
// type centralizes every knob the gateway and CLI need so the daemon address,
// TLS material, and listener settings are resolved in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors. A
// configuration that fails validation is fatal at startup; nothing here is
// re-read per request.
package config
