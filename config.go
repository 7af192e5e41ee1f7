package sdkmatrix

import (
	"os"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/core"
	"github.com/giantswarm/sdkmatrix/internal/refresh"
)

// engineConfig collects what the options set. Field overrides are kept as
// edits so they apply on top of a configuration file whatever the order of
// the options.
type engineConfig struct {
	configFile string
	edits      []func(*core.EngineConfig)
	deps       core.Collaborators
}

func (c *engineConfig) edit(fn func(*core.EngineConfig)) {
	c.edits = append(c.edits, fn)
}

// toCoreConfig builds the engine configuration: the built-in defaults or
// the configuration file, the GITHUB_TOKEN environment variable, then every
// option edit in order.
func (c engineConfig) toCoreConfig() (core.EngineConfig, error) {
	base := config.Default()
	if c.configFile != "" {
		loaded, err := config.LoadFile(c.configFile)
		if err != nil {
			return core.EngineConfig{}, err
		}
		base = loaded
	}

	ec := core.EngineConfig{
		Config:      base,
		GitHubToken: os.Getenv(refresh.TokenEnv),
	}
	for _, fn := range c.edits {
		fn(&ec)
	}
	return ec, nil
}
