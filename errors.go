package sdkmatrix

import (
	"github.com/giantswarm/sdkmatrix/internal/refresh"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Error kinds for inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrConfig is returned for an invalid configuration or a malformed
	// version source.
	ErrConfig = sentinel.ErrConfig

	// ErrNotFound is returned when a targeted language, version or
	// environment does not exist.
	ErrNotFound = sentinel.ErrNotFound

	// ErrTemplate marks an artifact whose template is missing or left a
	// placeholder unresolved.
	ErrTemplate = sentinel.ErrTemplate

	// ErrPortExhausted is returned when the port range cannot hold every
	// combination.
	ErrPortExhausted = sentinel.ErrPortExhausted

	// ErrBuild marks an environment whose build step failed.
	ErrBuild = sentinel.ErrBuild

	// ErrRun marks an environment whose start or test step failed.
	ErrRun = sentinel.ErrRun

	// ErrRateLimited is returned by Refresh when the upstream API refuses a
	// request.
	ErrRateLimited = refresh.ErrRateLimited
)
