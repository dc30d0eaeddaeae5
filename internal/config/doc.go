// Package config loads, normalizes, and validates mediamirror configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files (YAML is accepted when the path ends in
// .yaml or .yml). The Config type centralizes every knob the CLI and the
// pipeline need so encoder binaries, worker counts, and the state directory
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
