// Package config loads, normalizes, and validates stitcher configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts) and reads TOML files from ~/.config/stitcher/config.toml or a
// project-local stitcher.toml. The Config type centralizes the worker pool,
// compositor, and naming knobs so the CLI and the stitch engine agree on one
// set of values.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
