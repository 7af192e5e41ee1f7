package envgen

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/fileutil"
	"github.com/giantswarm/sdkmatrix/internal/matrix"
	"github.com/giantswarm/sdkmatrix/internal/portalloc"
	"github.com/giantswarm/sdkmatrix/internal/registry"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Artifact file names and the directory holding joint environments.
const (
	DockerfileName  = "Dockerfile"
	ComposeFileName = "docker-compose.yml"
	CombinationsDir = "combinations"
)

const artifactMode = 0o644

var roles = []config.Role{config.RoleClient, config.RoleServer}

// ServiceDir returns the directory of the single-service artifacts for one
// language, role and version.
func ServiceDir(root, lang string, role config.Role, version string) string {
	return filepath.Join(root, lang, string(role), version)
}

// CombinationDir returns the directory of the joint artifact for a
// combination key.
func CombinationDir(root, key string) string {
	return filepath.Join(root, CombinationsDir, key)
}

// ArtifactError reports why one artifact was not written.
type ArtifactError struct {
	Path    string
	Missing []string
	Err     error
}

func (e *ArtifactError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("artifact %s: unresolved placeholders %s: %v", e.Path, strings.Join(e.Missing, ", "), e.Err)
	}
	return fmt.Sprintf("artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// Report lists the outcome of a generation pass.
type Report struct {
	Written []string
	Failed  []*ArtifactError
}

// OK reports whether every artifact was written.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the artifact failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

func (r *Report) merge(other *Report) {
	r.Written = append(r.Written, other.Written...)
	r.Failed = append(r.Failed, other.Failed...)
}

// Config holds the collaborators of a Generator.
type Config struct {
	// Root is the output directory.
	Root      string
	Templates TemplateSource
	Commands  CommandLookup
	// Timeout resolves ${TIMEOUT}. Optional.
	Timeout func(category string) time.Duration
}

// Generator materializes environment descriptors on disk.
type Generator struct {
	cfg Config
	log *slog.Logger
}

// New returns a Generator. If logger is nil, slog.Default() is used.
func New(cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, log: logger}
}

// Generate writes the single-service artifacts of every registry entry and
// the joint artifact of every combination. A failing artifact is recorded
// in the report and the pass moves on. Artifacts are overwritten in place;
// nothing is ever deleted.
func (g *Generator) Generate(reg *registry.Registry, combos []matrix.Combination, ports *portalloc.Table) *Report {
	report := g.GenerateServices(reg)
	report.merge(g.GenerateCombinations(combos, ports))
	g.log.Info("environment artifacts generated",
		"root", g.cfg.Root, "written", len(report.Written), "failed", len(report.Failed))
	return report
}

// GenerateServices writes a Dockerfile and a single-service compose file
// for every (language, role, version) in reg.
func (g *Generator) GenerateServices(reg *registry.Registry) *Report {
	report := &Report{}
	cache := g.newTemplateCache()
	for _, lv := range reg.All() {
		for _, role := range roles {
			dir := ServiceDir(g.cfg.Root, lv.Language, role, lv.Version)
			v := newValues()
			v.put(PlaceholderVersion, lv.Version)
			v.put(PlaceholderLanguage, lv.Language)
			v.put(PlaceholderRole, string(role))
			v.put(PlaceholderPort, strconv.Itoa(lv.ServicePort()))
			g.putCommand(v, PlaceholderCommand, lv.Language, role)

			g.emit(report, cache, filepath.Join(dir, DockerfileName), DockerfileTemplateName(lv.Language, role), v)
			g.emit(report, cache, filepath.Join(dir, ComposeFileName), ServiceComposeTemplate, v)
		}
	}
	return report
}

// GenerateCombinations writes the joint compose file of every combination,
// using the port pair recorded for it in ports.
func (g *Generator) GenerateCombinations(combos []matrix.Combination, ports *portalloc.Table) *Report {
	report := &Report{}
	cache := g.newTemplateCache()
	for _, c := range combos {
		key := c.Key()
		dst := filepath.Join(CombinationDir(g.cfg.Root, key), ComposeFileName)

		var (
			as portalloc.Assignment
			ok bool
		)
		if ports != nil {
			as, ok = ports.Lookup(key)
		}
		if !ok {
			g.record(report, &ArtifactError{
				Path: dst,
				Err:  fmt.Errorf("no port assignment for %s: %w", key, sentinel.ErrNotFound),
			})
			continue
		}

		v := newValues()
		v.put(PlaceholderClientLang, c.ClientLang)
		v.put(PlaceholderClientVer, c.ClientVersion)
		v.put(PlaceholderClientPort, strconv.Itoa(as.Client))
		v.put(PlaceholderServerLang, c.ServerLang)
		v.put(PlaceholderServerVer, c.ServerVersion)
		v.put(PlaceholderServerPort, strconv.Itoa(as.Server))
		v.put(PlaceholderCategories, strings.Join(c.Categories, ","))
		g.putCommand(v, PlaceholderClientCommand, c.ClientLang, config.RoleClient)
		g.putCommand(v, PlaceholderServerCommand, c.ServerLang, config.RoleServer)
		g.putTimeout(v, c.Categories)

		g.emit(report, cache, dst, JointComposeTemplate, v)
	}
	return report
}

func (g *Generator) putCommand(v *values, name, lang string, role config.Role) {
	if g.cfg.Commands == nil {
		v.fail(name, fmt.Errorf("no command lookup configured: %w", sentinel.ErrTemplate))
		return
	}
	cmd, err := g.cfg.Commands.Command(lang, role)
	if err != nil {
		v.fail(name, err)
		return
	}
	v.put(name, cmd)
}

func (g *Generator) putTimeout(v *values, categories []string) {
	if g.cfg.Timeout == nil || len(categories) == 0 {
		v.fail(PlaceholderTimeout, errors.New("no category timeouts available"))
		return
	}
	var longest time.Duration
	for _, c := range categories {
		longest = max(longest, g.cfg.Timeout(c))
	}
	v.put(PlaceholderTimeout, strconv.Itoa(int(longest/time.Second)))
}

func (g *Generator) emit(report *Report, cache *templateCache, dst, name string, v *values) {
	tmpl, err := cache.get(name)
	if err != nil {
		g.record(report, &ArtifactError{Path: dst, Err: err})
		return
	}
	content, missing, lookupErr := render(tmpl, v)
	if len(missing) > 0 {
		g.record(report, &ArtifactError{
			Path:    dst,
			Missing: missing,
			Err:     errors.Join(sentinel.ErrTemplate, lookupErr),
		})
		return
	}
	if err := fileutil.WriteFileAtomic(dst, []byte(content), artifactMode); err != nil {
		g.record(report, &ArtifactError{Path: dst, Err: err})
		return
	}
	report.Written = append(report.Written, dst)
	g.log.Debug("artifact written", "path", dst)
}

func (g *Generator) record(report *Report, err *ArtifactError) {
	report.Failed = append(report.Failed, err)
	g.log.Warn("artifact skipped", "path", err.Path, "error", err.Err)
}

type cachedTemplate struct {
	text string
	err  error
}

// templateCache reads each template at most once per pass.
type templateCache struct {
	src     TemplateSource
	entries map[string]cachedTemplate
}

func (g *Generator) newTemplateCache() *templateCache {
	return &templateCache{src: g.cfg.Templates, entries: make(map[string]cachedTemplate)}
}

func (c *templateCache) get(name string) (string, error) {
	if e, ok := c.entries[name]; ok {
		return e.text, e.err
	}
	var e cachedTemplate
	if c.src == nil {
		e.err = fmt.Errorf("template %s: no template source configured: %w", name, sentinel.ErrTemplate)
	} else {
		e.text, e.err = c.src.Template(name)
	}
	c.entries[name] = e
	return e.text, e.err
}
