package sdkmatrix

import (
	"context"

	"github.com/giantswarm/sdkmatrix/internal/core"
)

// Compile-time interface satisfaction check.
var _ Engine = (*engineWrapper)(nil)

// engineWrapper exposes core.Engine through the Engine interface. The
// engine is a named field rather than embedded so callers cannot reach
// methods outside the interface with a type assertion.
type engineWrapper struct {
	eng *core.Engine
}

func (w *engineWrapper) Matrix(f Filter) (Plan, error) {
	return w.eng.Matrix(f)
}

func (w *engineWrapper) Generate(ctx context.Context, f Filter) (Plan, *GenerateReport, error) {
	return w.eng.Generate(ctx, f)
}

func (w *engineWrapper) Run(ctx context.Context, t Target) (Summary, error) {
	return w.eng.Run(ctx, t)
}

func (w *engineWrapper) Refresh(ctx context.Context) (RefreshResult, error) {
	return w.eng.Refresh(ctx)
}

func (w *engineWrapper) Cleanup(ctx context.Context) (SweepReport, error) {
	return w.eng.Cleanup(ctx)
}

// New returns an Engine built from the defaults, an optional configuration
// file and opts. It performs no I/O beyond reading the configuration file.
//
// Returns an error matching ErrConfig if the configuration file cannot be
// read or the resulting configuration is invalid. Panics if an option
// receives an invalid value; see the individual With* functions.
//
//nolint:ireturn // Returns the Engine interface so callers can substitute fakes.
func New(opts ...Option) (Engine, error) {
	var cfg engineConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	ec, err := cfg.toCoreConfig()
	if err != nil {
		return nil, err
	}
	eng, err := core.NewEngine(ec, cfg.deps)
	if err != nil {
		return nil, err
	}
	return &engineWrapper{eng: eng}, nil
}
