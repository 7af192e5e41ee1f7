package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Role is the side of a protocol exchange an SDK plays in an environment.
type Role string

const (
	RoleClient Role = "client"
	RoleServer Role = "server"
)

// Package managers understood by the manifest generator.
const (
	PackagePip   = "pip"
	PackageNpm   = "npm"
	PackageCargo = "cargo"
)

// Version sources understood by the refresh flow.
const (
	// SourceReleases reads versions from the repository's published releases.
	SourceReleases = "releases"
	// SourceManifest reads the single current version from the repository's
	// Cargo.toml, for SDKs that do not publish releases.
	SourceManifest = "manifest"
)

// Language describes one SDK implementation: where it lives upstream, how its
// images are built and how its client and server programs are started.
type Language struct {
	Name           string `yaml:"name"`
	Repo           string `yaml:"repo"`
	BaseImage      string `yaml:"base_image"`
	PortStart      int    `yaml:"port_start"`
	PortEnd        int    `yaml:"port_end"`
	ClientCommand  string `yaml:"client_command"`
	ServerCommand  string `yaml:"server_command"`
	PackageName    string `yaml:"package_name"`
	PackageManager string `yaml:"package_manager"`
	VersionSource  string `yaml:"version_source"`
}

// Ports returns the language's container port range as strings, inclusive
// of both ends.
func (l Language) Ports() []string {
	if l.PortEnd < l.PortStart {
		return nil
	}
	out := make([]string, 0, l.PortEnd-l.PortStart+1)
	for p := l.PortStart; p <= l.PortEnd; p++ {
		out = append(out, strconv.Itoa(p))
	}
	return out
}

// Command returns the start command for the given role.
func (l Language) Command(role Role) string {
	switch role {
	case RoleClient:
		return l.ClientCommand
	case RoleServer:
		return l.ServerCommand
	default:
		return ""
	}
}

// PortAllocation holds the parameters of the combination port allocator.
type PortAllocation struct {
	Base      int `yaml:"base"`
	Offset    int `yaml:"offset"`
	Increment int `yaml:"increment"`
	Max       int `yaml:"max"`
}

// Paths is the on-disk layout used by the engine.
type Paths struct {
	Registry  string `yaml:"registry"`
	Templates string `yaml:"templates"`
	Output    string `yaml:"output"`
	Cache     string `yaml:"cache"`
}

// Config is the static configuration of an engine run.
//
// Concurrency contract: a Config is built once (Default, Load or LoadFile)
// and never mutated afterwards. Accessors return copies of slices and maps so
// components can share one value without synchronization.
type Config struct {
	Languages      []Language               `yaml:"languages"`
	Categories     []string                 `yaml:"categories"`
	Timeouts       map[string]time.Duration `yaml:"timeouts"`
	DefaultTimeout time.Duration            `yaml:"default_timeout"`

	// SettleDelay is the fixed wait between starting an environment and
	// executing its tests. There is no readiness polling.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// StepTimeout bounds each orchestrator step (build, start, exec, stop).
	// Zero means no per-step bound.
	StepTimeout time.Duration `yaml:"step_timeout"`

	Ports PortAllocation `yaml:"ports"`
	Paths Paths          `yaml:"paths"`

	// ComposeCommand is the argv prefix used to invoke docker compose.
	ComposeCommand []string `yaml:"compose_command"`

	// ProjectPrefix namespaces compose project names so leftovers can be
	// found and swept.
	ProjectPrefix string `yaml:"project_prefix"`

	GitHubAPI     string `yaml:"github_api"`
	MaxCompatible int    `yaml:"max_compatible"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Languages:      defaultLanguages(),
		Categories:     slices.Clone(defaultCategories),
		Timeouts:       maps.Clone(defaultTimeouts),
		DefaultTimeout: DefaultCategoryTimeout,
		SettleDelay:    DefaultSettleDelay,
		Ports: PortAllocation{
			Base:      DefaultPortBase,
			Offset:    DefaultPortOffset,
			Increment: DefaultPortIncrement,
			Max:       DefaultPortMax,
		},
		Paths: Paths{
			Registry:  DefaultRegistryPath,
			Templates: DefaultTemplatesDir,
			Output:    DefaultOutputDir,
			Cache:     DefaultCacheDir,
		},
		ComposeCommand: []string{"docker", "compose"},
		ProjectPrefix:  DefaultProjectPrefix,
		GitHubAPI:      DefaultGitHubAPI,
		MaxCompatible:  DefaultMaxCompatible,
	}
}

// Load overlays the YAML document read from r on top of Default and
// validates the result. Keys absent from the document keep their default;
// lists present in the document replace the default list.
func Load(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode yaml: %w", sentinel.ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return Config{}, fmt.Errorf("%w: open %s: %w", sentinel.ErrConfig, path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Load(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every Config invariant and reports all violations at once
// via errors.Join. The returned error matches sentinel.ErrConfig.
func (c Config) Validate() error {
	var errs []error

	if len(c.Languages) == 0 {
		errs = append(errs, errors.New("at least one language is required"))
	}
	seen := make(map[string]struct{}, len(c.Languages))
	for i, l := range c.Languages {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("languages[%d]: name must not be empty", i))
			continue
		}
		if _, dup := seen[l.Name]; dup {
			errs = append(errs, fmt.Errorf("language %s: duplicate entry", l.Name))
		}
		seen[l.Name] = struct{}{}
		errs = append(errs, validateLanguage(l)...)
	}

	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("at least one test category is required"))
	}
	cats := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if _, dup := cats[cat]; dup {
			errs = append(errs, fmt.Errorf("category %s: duplicate entry", cat))
		}
		cats[cat] = struct{}{}
	}
	for cat, d := range c.Timeouts {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("timeout for %s must be greater than 0, got %v", cat, d))
		}
	}
	if c.DefaultTimeout <= 0 {
		errs = append(errs, fmt.Errorf("default timeout must be greater than 0, got %v", c.DefaultTimeout))
	}
	if c.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %v", c.SettleDelay))
	}
	if c.StepTimeout < 0 {
		errs = append(errs, fmt.Errorf("step timeout must not be negative, got %v", c.StepTimeout))
	}

	errs = append(errs, validatePorts(c.Ports)...)

	if c.Paths.Registry == "" {
		errs = append(errs, errors.New("registry path must not be empty"))
	}
	if c.Paths.Templates == "" {
		errs = append(errs, errors.New("templates directory must not be empty"))
	}
	if c.Paths.Output == "" {
		errs = append(errs, errors.New("output directory must not be empty"))
	}
	if c.Paths.Cache == "" {
		errs = append(errs, errors.New("cache directory must not be empty"))
	}
	if len(c.ComposeCommand) == 0 || c.ComposeCommand[0] == "" {
		errs = append(errs, errors.New("compose command must not be empty"))
	}
	if c.ProjectPrefix == "" {
		errs = append(errs, errors.New("project prefix must not be empty"))
	}
	if c.GitHubAPI == "" {
		errs = append(errs, errors.New("github api base must not be empty"))
	}
	if c.MaxCompatible <= 0 {
		errs = append(errs, fmt.Errorf("max compatible must be greater than 0, got %d", c.MaxCompatible))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel.ErrConfig, errors.Join(errs...))
}

func validateLanguage(l Language) []error {
	var errs []error
	if l.Repo == "" {
		errs = append(errs, fmt.Errorf("language %s: repo must not be empty", l.Name))
	}
	if l.BaseImage == "" {
		errs = append(errs, fmt.Errorf("language %s: base image must not be empty", l.Name))
	}
	if l.ClientCommand == "" || l.ServerCommand == "" {
		errs = append(errs, fmt.Errorf("language %s: client and server commands are required", l.Name))
	}
	if l.PortStart <= 0 || l.PortEnd < l.PortStart || l.PortEnd > 65535 {
		errs = append(errs, fmt.Errorf("language %s: invalid port range %d-%d", l.Name, l.PortStart, l.PortEnd))
	}
	switch l.PackageManager {
	case PackagePip, PackageNpm, PackageCargo:
	default:
		errs = append(errs, fmt.Errorf("language %s: unknown package manager %q", l.Name, l.PackageManager))
	}
	switch l.VersionSource {
	case SourceReleases, SourceManifest:
	default:
		errs = append(errs, fmt.Errorf("language %s: unknown version source %q", l.Name, l.VersionSource))
	}
	return errs
}

func validatePorts(p PortAllocation) []error {
	var errs []error
	if p.Base <= 0 {
		errs = append(errs, fmt.Errorf("port base must be greater than 0, got %d", p.Base))
	}
	if p.Offset <= 0 {
		errs = append(errs, fmt.Errorf("port offset must be greater than 0, got %d", p.Offset))
	}
	if p.Increment <= 0 {
		errs = append(errs, fmt.Errorf("port increment must be greater than 0, got %d", p.Increment))
	}
	if p.Max > 65535 {
		errs = append(errs, fmt.Errorf("port max must not exceed 65535, got %d", p.Max))
	}
	if p.Base+p.Offset > p.Max {
		errs = append(errs, fmt.Errorf("port base %d plus offset %d exceeds max %d", p.Base, p.Offset, p.Max))
	}
	return errs
}

// Language returns the catalog entry for name.
func (c Config) Language(name string) (Language, bool) {
	for _, l := range c.Languages {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageNames returns the catalog's language names in declaration order.
func (c Config) LanguageNames() []string {
	out := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		out = append(out, l.Name)
	}
	return out
}

// Command implements the command lookup used by the environment generator.
func (c Config) Command(lang string, role Role) (string, error) {
	l, ok := c.Language(lang)
	if !ok {
		return "", fmt.Errorf("language %s: %w", lang, sentinel.ErrNotFound)
	}
	cmd := l.Command(role)
	if cmd == "" {
		return "", fmt.Errorf("command for %s %s: %w", lang, role, sentinel.ErrNotFound)
	}
	return cmd, nil
}

// CategoryList returns a copy of the category catalog.
func (c Config) CategoryList() []string {
	return slices.Clone(c.Categories)
}

// Timeout returns the timeout for a test category, falling back to
// DefaultTimeout for categories without an entry.
func (c Config) Timeout(category string) time.Duration {
	if d, ok := c.Timeouts[category]; ok {
		return d
	}
	return c.DefaultTimeout
}
