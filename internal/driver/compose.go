package driver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/giantswarm/sdkmatrix/internal/process"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Output is the captured result of one driver step.
type Output = process.Result

// TestService is the compose service run as the test entrypoint.
const TestService = "test"

// LogDirName is the directory, inside an environment, that receives the
// step log files.
const LogDirName = "logs"

// Compose drives environments through the docker compose CLI.
type Compose struct {
	command []string
	prefix  string
	log     *slog.Logger
}

// NewCompose returns a driver invoking command (for example
// ["docker", "compose"]) with project names prefixed by prefix.
// If logger is nil, slog.Default() is used.
func NewCompose(command []string, prefix string, logger *slog.Logger) (*Compose, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, fmt.Errorf("compose command must not be empty: %w", sentinel.ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compose{command: slices.Clone(command), prefix: prefix, log: logger}, nil
}

// ProjectName returns the compose project used for the environment in dir.
func (c *Compose) ProjectName(dir string) string {
	return ProjectName(c.prefix, filepath.Base(dir))
}

// Build builds the environment's images.
func (c *Compose) Build(ctx context.Context, dir string) (Output, error) {
	return c.run(ctx, dir, "build", "build")
}

// Start starts the environment's services detached.
func (c *Compose) Start(ctx context.Context, dir string) (Output, error) {
	return c.run(ctx, dir, "start", "up", "-d")
}

// Exec runs the test service to completion and removes its container.
func (c *Compose) Exec(ctx context.Context, dir string) (Output, error) {
	return c.run(ctx, dir, "exec", "run", "--rm", TestService)
}

// Stop removes the environment's containers, networks and anonymous volumes.
func (c *Compose) Stop(ctx context.Context, dir string) (Output, error) {
	return c.run(ctx, dir, "stop", "down", "--volumes", "--remove-orphans")
}

func (c *Compose) run(ctx context.Context, dir, step string, args ...string) (Output, error) {
	argv := slices.Concat(c.command, []string{"-p", c.ProjectName(dir)}, args)
	return process.Run(ctx, process.Command{
		Name:   step,
		Args:   argv,
		Dir:    dir,
		LogDir: filepath.Join(dir, LogDirName),
	}, c.log.With("project", c.ProjectName(dir)))
}

// ProjectName builds a compose project name from a prefix and an
// environment key. Compose accepts lowercase letters, digits, dashes and
// underscores; anything else becomes a dash.
func ProjectName(prefix, key string) string {
	name := key
	if prefix != "" {
		name = prefix + "-" + key
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
}
