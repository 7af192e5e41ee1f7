package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/giantswarm/sdkmatrix"
	"github.com/giantswarm/sdkmatrix/internal/report"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// errFailures marks a command that completed but recorded failures.
var errFailures = errors.New("failures recorded")

// globalOptions apply to every command. Zero values keep the configured
// defaults.
type globalOptions struct {
	Config      string        `short:"c" long:"config" description:"YAML configuration file"`
	Registry    string        `long:"registry" description:"version source JSON file"`
	Templates   string        `long:"templates" description:"template root directory"`
	Output      string        `short:"o" long:"output" description:"generated environment root"`
	Cache       string        `long:"cache" description:"release cache directory"`
	PortBase    int           `long:"port-base" description:"first client port"`
	PortOffset  int           `long:"port-offset" description:"distance from client to server port"`
	ProbePorts  bool          `long:"probe-ports" description:"skip ports already bound on this host"`
	AllPairs    bool          `long:"all-pairs" description:"keep same-language pairs of latest versions"`
	SettleDelay time.Duration `long:"settle-delay" description:"wait between start and test"`
	StepTimeout time.Duration `long:"step-timeout" description:"bound for every lifecycle step"`
	Prefix      string        `long:"project-prefix" description:"compose project name prefix"`
	Compose     string        `long:"compose" description:"compose command, e.g. \"docker compose\""`
	Debug       bool          `short:"d" long:"debug" description:"debug logging"`
}

func (g *globalOptions) engineOptions() ([]sdkmatrix.Option, error) {
	if g.PortBase < 0 || g.PortOffset < 0 {
		return nil, fmt.Errorf("ports must not be negative: %w", sdkmatrix.ErrConfig)
	}
	if g.SettleDelay < 0 || g.StepTimeout < 0 {
		return nil, fmt.Errorf("durations must not be negative: %w", sdkmatrix.ErrConfig)
	}

	var opts []sdkmatrix.Option
	add := func(set bool, o func() sdkmatrix.Option) {
		if set {
			opts = append(opts, o())
		}
	}
	add(g.Config != "", func() sdkmatrix.Option { return sdkmatrix.WithConfigFile(g.Config) })
	add(g.Registry != "", func() sdkmatrix.Option { return sdkmatrix.WithRegistryPath(g.Registry) })
	add(g.Templates != "", func() sdkmatrix.Option { return sdkmatrix.WithTemplatesDir(g.Templates) })
	add(g.Output != "", func() sdkmatrix.Option { return sdkmatrix.WithOutputDir(g.Output) })
	add(g.Cache != "", func() sdkmatrix.Option { return sdkmatrix.WithCacheDir(g.Cache) })
	add(g.PortBase > 0, func() sdkmatrix.Option { return sdkmatrix.WithPortBase(g.PortBase) })
	add(g.PortOffset > 0, func() sdkmatrix.Option { return sdkmatrix.WithPortOffset(g.PortOffset) })
	add(g.ProbePorts, sdkmatrix.WithPortProbe)
	add(g.AllPairs, sdkmatrix.WithAllPairs)
	add(g.SettleDelay > 0, func() sdkmatrix.Option { return sdkmatrix.WithSettleDelay(g.SettleDelay) })
	add(g.StepTimeout > 0, func() sdkmatrix.Option { return sdkmatrix.WithStepTimeout(g.StepTimeout) })
	add(g.Prefix != "", func() sdkmatrix.Option { return sdkmatrix.WithProjectPrefix(g.Prefix) })
	add(strings.TrimSpace(g.Compose) != "", func() sdkmatrix.Option {
		return sdkmatrix.WithComposeCommand(strings.Fields(g.Compose)...)
	})
	return opts, nil
}

// app carries the state shared by the commands of one invocation.
type app struct {
	ctx    context.Context
	global globalOptions
	stdout io.Writer

	// extra is appended to the options derived from flags.
	extra []sdkmatrix.Option
}

func (a *app) engine() (sdkmatrix.Engine, error) {
	opts, err := a.global.engineOptions()
	if err != nil {
		return nil, err
	}
	return sdkmatrix.New(append(opts, a.extra...)...)
}

type filterOptions struct {
	ClientLang    string `long:"client" description:"client language"`
	ClientVersion string `long:"client-version" description:"client version"`
	ServerLang    string `long:"server" description:"server language"`
	ServerVersion string `long:"server-version" description:"server version"`
}

func (f filterOptions) filter() sdkmatrix.Filter {
	return sdkmatrix.Filter{
		ClientLang:    f.ClientLang,
		ClientVersion: f.ClientVersion,
		ServerLang:    f.ServerLang,
		ServerVersion: f.ServerVersion,
	}
}

type matrixCommand struct {
	filterOptions

	app *app
}

func (c *matrixCommand) Execute([]string) error {
	eng, err := c.app.engine()
	if err != nil {
		return err
	}
	plan, err := eng.Matrix(c.filter())
	if err != nil {
		return err
	}
	return report.Combinations(c.app.stdout, plan.Combinations, plan.Ports)
}

type generateCommand struct {
	filterOptions

	app *app
}

func (c *generateCommand) Execute([]string) error {
	eng, err := c.app.engine()
	if err != nil {
		return err
	}
	plan, rep, err := eng.Generate(c.app.ctx, c.filter())
	if err != nil {
		return err
	}
	for _, f := range rep.Failed {
		fmt.Fprintf(c.app.stdout, "failed: %v\n", f)
	}
	fmt.Fprintf(c.app.stdout, "%d combinations, %d artifacts written, %d failed\n",
		len(plan.Combinations), len(rep.Written), len(rep.Failed))
	if !rep.OK() {
		return errFailures
	}
	return nil
}

type runCommand struct {
	Name       string `short:"n" long:"name" description:"run one environment by name"`
	ClientLang string `long:"client" description:"client language"`
	ServerLang string `long:"server" description:"server language"`

	app *app
}

func (c *runCommand) Execute([]string) error {
	if c.Name != "" && (c.ClientLang != "" || c.ServerLang != "") {
		return fmt.Errorf("--name cannot be combined with --client or --server: %w", sdkmatrix.ErrConfig)
	}
	eng, err := c.app.engine()
	if err != nil {
		return err
	}
	summary, err := eng.Run(c.app.ctx, sdkmatrix.Target{
		Name:       c.Name,
		ClientLang: c.ClientLang,
		ServerLang: c.ServerLang,
	})
	if err != nil {
		return err
	}
	if err := report.Summary(c.app.stdout, summary); err != nil {
		return err
	}
	if !summary.OK() {
		return errFailures
	}
	return nil
}

type refreshCommand struct {
	app *app
}

func (c *refreshCommand) Execute([]string) error {
	eng, err := c.app.engine()
	if err != nil {
		return err
	}
	res, err := eng.Refresh(c.app.ctx)
	if err != nil {
		return err
	}
	for _, added := range res.Added {
		latest := ""
		if added.Latest {
			latest = " (latest)"
		}
		fmt.Fprintf(c.app.stdout, "added %s %s%s\n", added.Language, added.Version, latest)
	}
	fmt.Fprintf(c.app.stdout, "%d added, %d already known, %d manifests written\n",
		len(res.Added), res.Known, len(res.Manifests))
	return nil
}

type cleanupCommand struct {
	app *app
}

func (c *cleanupCommand) Execute([]string) error {
	eng, err := c.app.engine()
	if err != nil {
		return err
	}
	rep, err := eng.Cleanup(c.app.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.app.stdout, "removed %d containers, %d networks\n", len(rep.Containers), len(rep.Networks))
	if len(rep.Failed) > 0 {
		for _, f := range rep.Failed {
			fmt.Fprintf(c.app.stdout, "failed: %v\n", f)
		}
		return errFailures
	}
	return nil
}

func newParser(a *app) (*flags.Parser, error) {
	p := flags.NewParser(&a.global, flags.HelpFlag|flags.PassDoubleDash)
	p.Name = "sdkmatrix"

	commands := []struct {
		name, short string
		data        flags.Commander
	}{
		{"matrix", "List the combinations and their ports", &matrixCommand{app: a}},
		{"generate", "Write the environments of the selected combinations", &generateCommand{app: a}},
		{"run", "Build, start and test generated environments", &runCommand{app: a}},
		{"refresh", "Add newly released SDK versions to the version source", &refreshCommand{app: a}},
		{"cleanup", "Remove leftover containers and networks", &cleanupCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := p.AddCommand(c.name, c.short, "", c.data); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, extra ...sdkmatrix.Option) int {
	a := &app{ctx: ctx, stdout: stdout, extra: extra}
	p, err := newParser(a)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}

	p.CommandHandler = func(cmd flags.Commander, args []string) error {
		sdkmatrix.SetLogger(newLogger(stderr, a.global.Debug))
		return cmd.Execute(args)
	}

	_, err = p.ParseArgs(args)
	switch {
	case err == nil:
		return exitOK
	case flags.WroteHelp(err):
		fmt.Fprintln(stdout, err)
		return exitOK
	case errors.Is(err, errFailures):
		return exitFail
	}

	var ferr *flags.Error
	if errors.As(err, &ferr) {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	fmt.Fprintf(stderr, "sdkmatrix: %v\n", err)
	if errors.Is(err, sdkmatrix.ErrConfig) {
		return exitUsage
	}
	return exitFail
}
