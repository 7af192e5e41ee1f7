package sdkmatrix

import (
	"fmt"
	"slices"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/core"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("sdkmatrix: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("sdkmatrix: %s must not be empty", name))
	}
}

// Option configures an Engine during construction via New.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// ports or durations). Option values are typically constants or flags
// checked by the caller, so an invalid value is a programmer error, in the
// manner of [regexp.MustCompile]. Errors that depend on the environment,
// such as an unreadable configuration file, are returned by New.
type Option func(*engineConfig)

// WithConfigFile loads the configuration from a YAML file instead of the
// built-in defaults. Keys absent from the file keep their default. Other
// options override the file whatever their position.
// Panics if path is empty.
func WithConfigFile(path string) Option {
	requireNonEmpty("config file path", path)
	return func(c *engineConfig) {
		c.configFile = path
	}
}

// WithRegistryPath sets the version source file.
//
// Default: "sdkinfo.json".
//
// Panics if path is empty.
func WithRegistryPath(path string) Option {
	requireNonEmpty("registry path", path)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.Paths.Registry = path })
	}
}

// WithTemplatesDir sets the directory holding the Dockerfile and compose
// templates. Refresh writes package manifests into it as well.
//
// Default: "templates".
//
// Panics if dir is empty.
func WithTemplatesDir(dir string) Option {
	requireNonEmpty("templates directory", dir)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.Paths.Templates = dir })
	}
}

// WithOutputDir sets the root that generated environments are written to
// and run from.
//
// Default: "docker".
//
// Panics if dir is empty.
func WithOutputDir(dir string) Option {
	requireNonEmpty("output directory", dir)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.Paths.Output = dir })
	}
}

// WithCacheDir sets the directory of the release cache database.
// Panics if dir is empty.
func WithCacheDir(dir string) Option {
	requireNonEmpty("cache directory", dir)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.Paths.Cache = dir })
	}
}

// WithSettleDelay sets the fixed wait between starting an environment and
// running its tests. Zero disables the wait.
//
// Default: 5 seconds.
//
// Panics if d < 0.
func WithSettleDelay(d time.Duration) Option {
	if d < 0 {
		panic(fmt.Sprintf("sdkmatrix: settle delay must not be negative, got %v", d))
	}
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.SettleDelay = d })
	}
}

// WithStepTimeout bounds every build, start, test and teardown step.
// Without it steps are unbounded.
// Panics if d <= 0.
func WithStepTimeout(d time.Duration) Option {
	requirePositive("step timeout", d)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.StepTimeout = d })
	}
}

// WithPortBase sets the first client port handed out.
//
// Default: 15000.
//
// Panics if port <= 0.
func WithPortBase(port int) Option {
	requirePositive("port base", port)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.Ports.Base = port })
	}
}

// WithPortOffset sets the distance between a pair's client and server ports.
//
// Default: 8.
//
// Panics if offset <= 0.
func WithPortOffset(offset int) Option {
	requirePositive("port offset", offset)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.Ports.Offset = offset })
	}
}

// WithPortProbe makes generation skip ports that cannot currently be bound
// on this host.
func WithPortProbe() Option {
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.ProbePorts = true })
	}
}

// WithAllPairs keeps same-language pairs whose client is the latest
// version.
func WithAllPairs() Option {
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.AllPairs = true })
	}
}

// WithProjectPrefix sets the prefix of compose project names. Cleanup
// removes the resources of every project carrying it.
//
// Default: "sdkmatrix".
//
// Panics if prefix is empty.
func WithProjectPrefix(prefix string) Option {
	requireNonEmpty("project prefix", prefix)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.ProjectPrefix = prefix })
	}
}

// WithComposeCommand sets the argv prefix used to invoke docker compose,
// for example "docker-compose" or "podman", "compose".
//
// Default: "docker", "compose".
//
// Panics if argv is empty or its first element is empty.
func WithComposeCommand(argv ...string) Option {
	if len(argv) == 0 {
		panic("sdkmatrix: compose command must not be empty")
	}
	requireNonEmpty("compose command", argv[0])
	argv = slices.Clone(argv)
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.ComposeCommand = argv })
	}
}

// WithGitHubToken sets the token used for release fetches, overriding the
// GITHUB_TOKEN environment variable. An empty token means anonymous
// requests.
func WithGitHubToken(token string) Option {
	return func(c *engineConfig) {
		c.edit(func(ec *core.EngineConfig) { ec.GitHubToken = token })
	}
}

// WithDriver replaces the docker compose driver, for example with a fake
// in tests.
func WithDriver(d Driver) Option {
	return func(c *engineConfig) {
		c.deps.Driver = d
	}
}

// WithReleaseSource replaces the GitHub release source used by Refresh.
func WithReleaseSource(s ReleaseSource) Option {
	return func(c *engineConfig) {
		c.deps.Source = s
	}
}
