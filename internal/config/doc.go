// Package config holds the static configuration of the sdkmatrix engine: the
// language catalog (repository, base image, port range, client and server
// commands), the test category catalog with per-category timeouts, the port
// allocator parameters and the on-disk layout.
//
// A Config is immutable once built. Default reproduces the built-in tables;
// Load and LoadFile overlay a YAML document on top of them.
package config
