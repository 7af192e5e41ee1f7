package core

import (
	"context"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/driver"
	"github.com/giantswarm/sdkmatrix/internal/orchestrator"
	"github.com/giantswarm/sdkmatrix/internal/refresh"
)

// EngineConfig is the configuration an Engine is built from. It is not
// modified after NewEngine.
type EngineConfig struct {
	config.Config

	// GitHubToken authenticates release fetches. Empty means anonymous
	// requests with the lower rate limit.
	GitHubToken string

	// ProbePorts makes the port allocator skip ports that cannot be bound
	// on this host at generation time.
	ProbePorts bool

	// AllPairs disables the rule that drops same-language pairs whose
	// client is the latest version.
	AllPairs bool
}

// Validate reports every configuration violation.
func (c EngineConfig) Validate() error {
	return c.Config.Validate()
}

// Collaborators replaces the external systems an Engine talks to. Nil
// fields get the production implementation.
type Collaborators struct {
	Driver orchestrator.Driver
	Source refresh.ReleaseSource
	Docker driver.Engine
	Sleep  func(ctx context.Context, d time.Duration) error
}
