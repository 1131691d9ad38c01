// Package config loads, normalizes, and validates annotator configuration data.
//
// It supplies repository defaults (including the default prompt templates),
// expands user paths (including tilde shortcuts), reads TOML files, and
// honours environment fallbacks such as ANNOTATOR_API_KEY and OPENAI_API_KEY.
// The Config type centralizes every knob the generators, exporter and CLI
// need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
