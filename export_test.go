package sdkmatrix

import (
	"strings"
	"time"
)

// ConfigSnapshot holds a copy of resolved configuration fields so the _test
// package can verify option closures without accessing internals.
// ComposeCommand is joined with spaces to keep the struct comparable.
type ConfigSnapshot struct {
	ConfigFile     string
	RegistryPath   string
	TemplatesDir   string
	OutputDir      string
	CacheDir       string
	SettleDelay    time.Duration
	StepTimeout    time.Duration
	PortBase       int
	PortOffset     int
	ProbePorts     bool
	AllPairs       bool
	ProjectPrefix  string
	ComposeCommand string
	GitHubToken    string
	HasDriver      bool
	HasSource      bool
}

// ApplyOptionsForTesting applies opts to an empty configuration, resolves
// it the way New does and returns a snapshot of the result.
func ApplyOptionsForTesting(opts ...Option) (ConfigSnapshot, error) {
	var cfg engineConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	ec, err := cfg.toCoreConfig()
	if err != nil {
		return ConfigSnapshot{}, err
	}

	return ConfigSnapshot{
		ConfigFile:     cfg.configFile,
		RegistryPath:   ec.Paths.Registry,
		TemplatesDir:   ec.Paths.Templates,
		OutputDir:      ec.Paths.Output,
		CacheDir:       ec.Paths.Cache,
		SettleDelay:    ec.SettleDelay,
		StepTimeout:    ec.StepTimeout,
		PortBase:       ec.Ports.Base,
		PortOffset:     ec.Ports.Offset,
		ProbePorts:     ec.ProbePorts,
		AllPairs:       ec.AllPairs,
		ProjectPrefix:  ec.ProjectPrefix,
		ComposeCommand: strings.Join(ec.ComposeCommand, " "),
		GitHubToken:    ec.GitHubToken,
		HasDriver:      cfg.deps.Driver != nil,
		HasSource:      cfg.deps.Source != nil,
	}, nil
}
