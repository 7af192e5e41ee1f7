package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matgreaves/run"

	"github.com/giantswarm/sdkmatrix/internal/driver"
	"github.com/giantswarm/sdkmatrix/internal/envgen"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Driver executes the lifecycle steps of the environment in a directory.
// A step that ran reports its exit code in the Output; an error means the
// step could not run at all.
type Driver interface {
	Build(ctx context.Context, dir string) (driver.Output, error)
	Start(ctx context.Context, dir string) (driver.Output, error)
	Exec(ctx context.Context, dir string) (driver.Output, error)
	Stop(ctx context.Context, dir string) (driver.Output, error)
}

// Config holds the orchestrator settings.
type Config struct {
	// Root is the generator output root; environments are the directories
	// under Root/combinations.
	Root string
	// SettleDelay is waited after Start and before Exec.
	SettleDelay time.Duration
	// StepTimeout bounds each step. Zero means unbounded.
	StepTimeout time.Duration
	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator drives environments through build, start, exec and
// teardown, one at a time.
type Orchestrator struct {
	cfg    Config
	driver Driver
	log    *slog.Logger
}

// New returns an Orchestrator. If logger is nil, slog.Default() is used.
func New(cfg Config, d Driver, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleep
	}
	return &Orchestrator{cfg: cfg, driver: d, log: logger}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) envDir(name string) string {
	return envgen.CombinationDir(o.cfg.Root, name)
}

// Discover returns the names of the generated environments, sorted. A
// missing combinations directory yields an empty list.
func (o *Orchestrator) Discover() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(o.cfg.Root, envgen.CombinationsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("discover environments: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// RunAll runs every discovered environment.
func (o *Orchestrator) RunAll(ctx context.Context) (Summary, error) {
	names, err := o.Discover()
	if err != nil {
		return Summary{}, err
	}
	if len(names) == 0 {
		o.log.Warn("no environments found", "root", o.cfg.Root)
	}
	return o.Run(ctx, names), nil
}

// RunOne runs the environment called name, which must be one of the
// names Discover returns. Any other name yields sentinel.ErrNotFound.
func (o *Orchestrator) RunOne(ctx context.Context, name string) (Summary, error) {
	names, err := o.Discover()
	if err != nil {
		return Summary{}, err
	}
	if !slices.Contains(names, name) {
		return Summary{}, fmt.Errorf("environment %q: %w", name, sentinel.ErrNotFound)
	}
	return o.Run(ctx, []string{name}), nil
}

// RunCombination runs every discovered environment whose client language
// is clientLang and server language is serverLang. No match yields
// sentinel.ErrNotFound.
func (o *Orchestrator) RunCombination(ctx context.Context, clientLang, serverLang string) (Summary, error) {
	names, err := o.Discover()
	if err != nil {
		return Summary{}, err
	}
	var selected []string
	for _, n := range names {
		if MatchesLanguages(n, clientLang, serverLang) {
			selected = append(selected, n)
		}
	}
	if len(selected) == 0 {
		return Summary{}, fmt.Errorf("no environment for client %s and server %s: %w", clientLang, serverLang, sentinel.ErrNotFound)
	}
	return o.Run(ctx, selected), nil
}

// MatchesLanguages reports whether an environment key
// "{clientLang}-{clientVer}-{serverLang}-{serverVer}" has the given client
// and server languages.
func MatchesLanguages(key, clientLang, serverLang string) bool {
	rest, ok := strings.CutPrefix(key, clientLang+"-")
	if !ok || rest == "" {
		return false
	}
	i := strings.Index(rest, "-"+serverLang+"-")
	return i > 0 && i+len(serverLang)+2 < len(rest)
}

// Run executes the named environments sequentially and returns their
// summary. Failures are recorded per environment; they never stop the run.
func (o *Orchestrator) Run(ctx context.Context, names []string) Summary {
	s := Summary{RunID: uuid.NewString()}
	log := o.log.With("run_id", s.RunID)
	log.Info("run started", "environments", len(names))

	for _, name := range names {
		r := o.runEnvironment(ctx, log.With("environment", name), name)
		s.add(r)
	}

	log.Info("run finished", "total", s.Total, "passed", s.Passed, "failed", s.Failed)
	return s
}

// runEnvironment moves one environment through its lifecycle. Teardown is
// deferred so it runs exactly once whatever state was reached.
func (o *Orchestrator) runEnvironment(ctx context.Context, log *slog.Logger, name string) (res Result) {
	dir := o.envDir(name)
	start := time.Now()
	res = Result{Name: name, States: []State{StateCreated}}
	enter := func(s State) {
		res.States = append(res.States, s)
		log.Debug("state changed", "state", s)
	}

	defer func() {
		o.teardown(ctx, log, dir)
		enter(StateTornDown)
		res.Duration = time.Since(start)
		if res.Passed() {
			log.Info("environment passed", "duration", res.Duration)
		} else {
			log.Warn("environment failed", "duration", res.Duration, "error", res.Err)
		}
	}()

	err := run.Sequence{
		run.Func(func(ctx context.Context) error {
			out, err := o.step(ctx, o.driver.Build, dir)
			res.Output = out
			if failure := stepFailure(StepBuild, sentinel.ErrBuild, out, err); failure != nil {
				return failure
			}
			enter(StateBuilt)
			return nil
		}),
		run.Func(func(ctx context.Context) error {
			out, err := o.step(ctx, o.driver.Start, dir)
			res.Output = out
			return stepFailure(StepStart, sentinel.ErrRun, out, err)
		}),
		run.Func(func(ctx context.Context) error {
			if err := o.cfg.Sleep(ctx, o.cfg.SettleDelay); err != nil {
				return &StepError{Step: StepSettle, ExitCode: -1, Kind: sentinel.ErrRun, Err: err}
			}
			enter(StateRunning)
			return nil
		}),
		run.Func(func(ctx context.Context) error {
			out, err := o.step(ctx, o.driver.Exec, dir)
			res.Output = out
			return stepFailure(StepExec, sentinel.ErrRun, out, err)
		}),
	}.Run(ctx)

	if err != nil {
		res.Status = StateFailed
		res.Err = err
	} else {
		res.Status = StatePassed
	}
	enter(res.Status)
	return res
}

func (o *Orchestrator) step(ctx context.Context, fn func(context.Context, string) (driver.Output, error), dir string) (driver.Output, error) {
	if o.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.StepTimeout)
		defer cancel()
	}
	return fn(ctx, dir)
}

func stepFailure(step string, kind error, out driver.Output, err error) error {
	switch {
	case err != nil:
		return &StepError{Step: step, ExitCode: out.ExitCode, Kind: kind, Err: err}
	case out.ExitCode != 0:
		return &StepError{Step: step, ExitCode: out.ExitCode, Kind: kind}
	default:
		return nil
	}
}

// teardown stops the environment. It runs even when ctx is already
// canceled and only ever logs failures.
func (o *Orchestrator) teardown(ctx context.Context, log *slog.Logger, dir string) {
	out, err := o.step(context.WithoutCancel(ctx), o.driver.Stop, dir)
	if failure := stepFailure(StepStop, sentinel.ErrRun, out, err); failure != nil {
		log.Warn("teardown warning", "error", failure, "stderr", lastLine(out.Stderr))
	}
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n")
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
