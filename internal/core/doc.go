// Package core wires the engine packages into the operations exposed by the
// public API: listing the compatibility matrix, generating environments,
// running them, refreshing the version source and sweeping leftover
// containers.
//
// An Engine owns an immutable configuration. Every operation reads the
// version source afresh, so a refresh is visible to the next generate
// without rebuilding the Engine.
package core
