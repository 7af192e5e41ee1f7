package sdkmatrix

import "github.com/giantswarm/sdkmatrix/internal/config"

// Default configuration values used by New.
// These constants are exported so callers can build configurations
// relative to them.
const (
	// DefaultPortBase is the first client port handed out.
	DefaultPortBase = config.DefaultPortBase

	// DefaultPortOffset is the distance between a pair's client and server
	// ports.
	DefaultPortOffset = config.DefaultPortOffset

	// DefaultPortMax is the highest port the allocator may hand out.
	DefaultPortMax = config.DefaultPortMax

	// DefaultSettleDelay is the fixed wait between starting an environment
	// and running its tests.
	DefaultSettleDelay = config.DefaultSettleDelay

	// DefaultCategoryTimeout applies to test categories without their own
	// timeout.
	DefaultCategoryTimeout = config.DefaultCategoryTimeout

	DefaultRegistryPath  = config.DefaultRegistryPath
	DefaultTemplatesDir  = config.DefaultTemplatesDir
	DefaultOutputDir     = config.DefaultOutputDir
	DefaultCacheDir      = config.DefaultCacheDir
	DefaultProjectPrefix = config.DefaultProjectPrefix
)
