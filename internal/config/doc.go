// Package config loads, normalizes, and validates unbake configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// UNBAKE_FALLBACK_ENCODING. The Config type centralizes every knob the CLI
// needs, from detection thresholds to conflict policy, so behaviour is
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical conflict modes, and clear validation errors.
package config
