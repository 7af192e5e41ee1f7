package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/giantswarm/sdkmatrix/internal/driver"
	"github.com/giantswarm/sdkmatrix/internal/envgen"
	"github.com/giantswarm/sdkmatrix/internal/fileutil"
	"github.com/giantswarm/sdkmatrix/internal/matrix"
	"github.com/giantswarm/sdkmatrix/internal/orchestrator"
	"github.com/giantswarm/sdkmatrix/internal/portalloc"
	"github.com/giantswarm/sdkmatrix/internal/refresh"
	"github.com/giantswarm/sdkmatrix/internal/registry"
	"github.com/giantswarm/sdkmatrix/internal/releasecache"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Plan is a built matrix together with its port assignments.
type Plan struct {
	Combinations []matrix.Combination
	Ports        *portalloc.Table
}

// Target selects the environments of a run. With Name set exactly that
// environment runs; with ClientLang and ServerLang set every environment
// of that language pair runs; otherwise all environments run.
type Target struct {
	Name       string
	ClientLang string
	ServerLang string
}

// Engine runs the matrix pipeline for one configuration.
type Engine struct {
	cfg  EngineConfig
	deps Collaborators
	log  *slog.Logger
}

// NewEngine validates cfg and returns an Engine. The configuration error
// matches sentinel.ErrConfig.
func NewEngine(cfg EngineConfig, deps Collaborators) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, deps: deps, log: Logger()}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

func (e *Engine) loadRegistry() (*registry.Registry, error) {
	return registry.LoadFile(e.cfg.Paths.Registry, e.log)
}

func (e *Engine) plan(f matrix.Filter) (Plan, *registry.Registry, error) {
	reg, err := e.loadRegistry()
	if err != nil {
		return Plan{}, nil, err
	}

	var policies []matrix.PairPolicy
	if e.cfg.AllPairs {
		policies = append(policies, func(registry.LanguageVersion, registry.LanguageVersion) bool { return true })
	}
	combos, err := matrix.NewBuilder(reg, e.cfg.CategoryList(), e.log, policies...).Build(f)
	if err != nil {
		return Plan{}, nil, err
	}

	alloc := portalloc.New(e.cfg.Ports, e.log)
	if e.cfg.ProbePorts {
		alloc.Probe = portalloc.HostProbe
	}
	table, err := alloc.Allocate(combos)
	if err != nil {
		return Plan{}, nil, err
	}
	return Plan{Combinations: combos, Ports: table}, reg, nil
}

// Matrix builds the combinations selected by f and assigns their ports
// without writing anything.
func (e *Engine) Matrix(f matrix.Filter) (Plan, error) {
	p, _, err := e.plan(f)
	return p, err
}

// Generate writes the environment descriptors for the combinations
// selected by f. The output root is locked for the duration of the pass.
// Per-artifact failures are reported in the returned report, not as an
// error.
func (e *Engine) Generate(ctx context.Context, f matrix.Filter) (Plan, *envgen.Report, error) {
	fl, err := fileutil.Lock(ctx, filepath.Clean(e.cfg.Paths.Output))
	if err != nil {
		return Plan{}, nil, fmt.Errorf("lock output directory: %w", err)
	}
	defer fileutil.Unlock(e.log, fl)

	p, reg, err := e.plan(f)
	if err != nil {
		return Plan{}, nil, err
	}

	gen := envgen.New(envgen.Config{
		Root:      e.cfg.Paths.Output,
		Templates: envgen.DirTemplates{Root: e.cfg.Paths.Templates},
		Commands:  e.cfg.Config,
		Timeout:   e.cfg.Timeout,
	}, e.log)
	return p, gen.Generate(reg, p.Combinations, p.Ports), nil
}

// Run executes the environments selected by t from the output root.
func (e *Engine) Run(ctx context.Context, t Target) (orchestrator.Summary, error) {
	if (t.ClientLang == "") != (t.ServerLang == "") {
		return orchestrator.Summary{}, fmt.Errorf("%w: client and server language must be given together", sentinel.ErrConfig)
	}

	d := e.deps.Driver
	if d == nil {
		compose, err := driver.NewCompose(e.cfg.ComposeCommand, e.cfg.ProjectPrefix, e.log)
		if err != nil {
			return orchestrator.Summary{}, err
		}
		d = compose
	}

	orch := orchestrator.New(orchestrator.Config{
		Root:        e.cfg.Paths.Output,
		SettleDelay: e.cfg.SettleDelay,
		StepTimeout: e.cfg.StepTimeout,
		Sleep:       e.deps.Sleep,
	}, d, e.log)

	switch {
	case t.Name != "":
		return orch.RunOne(ctx, t.Name)
	case t.ClientLang != "":
		return orch.RunCombination(ctx, t.ClientLang, t.ServerLang)
	default:
		return orch.RunAll(ctx)
	}
}

// Refresh updates the version source from upstream releases and writes
// the package manifests of new versions into the template tree.
func (e *Engine) Refresh(ctx context.Context) (refresh.Result, error) {
	source := e.deps.Source
	if source == nil {
		cache, err := releasecache.Open(ctx, filepath.Join(e.cfg.Paths.Cache, releasecache.FileName), e.log)
		if err != nil {
			return refresh.Result{}, err
		}
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				e.log.Warn("close release cache", "error", closeErr)
			}
		}()
		source = refresh.NewGitHub(e.cfg.GitHubAPI, e.cfg.GitHubToken, cache, e.log)
	}

	r := refresh.New(refresh.Config{
		Languages:     e.cfg.Languages,
		RegistryPath:  e.cfg.Paths.Registry,
		TemplatesDir:  e.cfg.Paths.Templates,
		MaxCompatible: e.cfg.MaxCompatible,
	}, source, e.log)
	return r.Run(ctx)
}

// Cleanup removes leftover containers and networks of projects carrying
// the configured prefix.
func (e *Engine) Cleanup(ctx context.Context) (driver.SweepReport, error) {
	eng := e.deps.Docker
	if eng == nil {
		docker, err := driver.NewDockerEngine()
		if err != nil {
			return driver.SweepReport{}, err
		}
		defer func() {
			if closeErr := docker.Close(); closeErr != nil {
				e.log.Warn("close docker client", "error", closeErr)
			}
		}()
		eng = docker
	}
	return driver.NewSweeper(eng, e.cfg.ProjectPrefix, e.log).Sweep(ctx)
}
