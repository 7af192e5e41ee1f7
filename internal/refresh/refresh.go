package refresh

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/envgen"
	"github.com/giantswarm/sdkmatrix/internal/fileutil"
	"github.com/giantswarm/sdkmatrix/internal/matrix"
	"github.com/giantswarm/sdkmatrix/internal/registry"
)

// defaultConcurrency bounds the number of languages fetched at once.
const defaultConcurrency = 4

// Config holds the inputs of a refresh.
type Config struct {
	Languages     []config.Language
	RegistryPath  string
	TemplatesDir  string
	MaxCompatible int
	Concurrency   int
}

// Added describes one version a refresh added to the version source.
type Added struct {
	Language string
	Version  string
	Latest   bool
}

// Result reports what a refresh changed.
type Result struct {
	Added []Added
	// Known counts fetched versions that were already recorded.
	Known     int
	Manifests []string
}

// Refresher runs refreshes against one version source file.
type Refresher struct {
	cfg    Config
	source ReleaseSource
	log    *slog.Logger
}

// New returns a Refresher. If logger is nil, slog.Default() is used.
func New(cfg Config, source ReleaseSource, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Refresher{cfg: cfg, source: source, log: logger}
}

// Run performs one refresh. The version source file is locked for the
// whole run; nothing is written when a fetch fails or no version is new.
// Manifest write failures are reported after the version source is saved.
func (r *Refresher) Run(ctx context.Context) (Result, error) {
	fl, err := fileutil.Lock(ctx, r.cfg.RegistryPath)
	if err != nil {
		return Result{}, fmt.Errorf("lock version source: %w", err)
	}
	defer fileutil.Unlock(r.log, fl)

	reg, err := r.load()
	if err != nil {
		return Result{}, err
	}

	fetched, err := r.fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	res, err := r.apply(reg, fetched)
	if err != nil {
		return Result{}, err
	}
	if len(res.Added) == 0 {
		r.log.Info("version source up to date", "path", r.cfg.RegistryPath, "known", res.Known)
		return res, nil
	}

	if err := reg.SaveFile(r.cfg.RegistryPath); err != nil {
		return Result{}, fmt.Errorf("save version source: %w", err)
	}

	var errs []error
	for _, a := range res.Added {
		lang, _ := r.language(a.Language)
		written, err := envgen.WriteManifests(r.cfg.TemplatesDir, lang, a.Version)
		res.Manifests = append(res.Manifests, written...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	r.log.Info("version source refreshed",
		"path", r.cfg.RegistryPath, "added", len(res.Added), "known", res.Known, "manifests", len(res.Manifests))
	return res, errors.Join(errs...)
}

func (r *Refresher) load() (*registry.Registry, error) {
	reg, err := registry.LoadFile(r.cfg.RegistryPath, r.log)
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Info("version source missing, starting empty", "path", r.cfg.RegistryPath)
		return registry.New(r.log), nil
	}
	return reg, err
}

// fetch lists releases for every language concurrently. The first failure
// cancels the remaining fetches.
func (r *Refresher) fetch(ctx context.Context) (map[string][]Release, error) {
	results := make([][]Release, len(r.cfg.Languages))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, lang := range r.cfg.Languages {
		g.Go(func() error {
			rels, err := r.source.Releases(gCtx, lang)
			if err != nil {
				return err
			}
			results[i] = rels
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]Release, len(results))
	for i, lang := range r.cfg.Languages {
		out[lang.Name] = results[i]
	}
	return out, nil
}

// apply adds the new versions in fetched to reg.
func (r *Refresher) apply(reg *registry.Registry, fetched map[string][]Release) (Result, error) {
	names := make([]string, 0, len(r.cfg.Languages))
	all := make(map[string][]string, len(r.cfg.Languages))
	for _, lang := range r.cfg.Languages {
		names = append(names, lang.Name)
		versions := reg.Versions(lang.Name)
		for _, rel := range fetched[lang.Name] {
			versions = append(versions, NormalizeVersion(rel.Tag))
		}
		all[lang.Name] = versions
	}

	var res Result
	for _, lang := range r.cfg.Languages {
		releases := make(map[string]Release)
		var fresh []string
		for _, rel := range fetched[lang.Name] {
			v := NormalizeVersion(rel.Tag)
			if reg.Has(lang.Name, v) {
				res.Known++
				continue
			}
			if _, dup := releases[v]; dup {
				continue
			}
			releases[v] = rel
			fresh = append(fresh, v)
		}
		if len(fresh) == 0 {
			continue
		}

		slices.SortFunc(fresh, matrix.NewestFirst)
		// Prereleases never take the latest flag.
		var newest string
		if stable := matrix.LatestStable(fresh, 1); len(stable) == 1 {
			newest = stable[0]
		}
		latest := newest != "" && isNewer(newest, currentLatest(reg, lang.Name))
		edges := matrix.RefreshCompatibility(lang.Name, all, names, r.cfg.MaxCompatible)

		for _, v := range fresh {
			rel := releases[v]
			lv := registry.LanguageVersion{
				Language:    lang.Name,
				Version:     v,
				ReleaseDate: rel.PublishedAt,
				IsLatest:    latest && v == newest,
				DockerImage: lang.BaseImage,
				Ports:       lang.Ports(),
				GitHubRepo:  rel.URL,
				PackageName: envgen.PackageSpec(lang, v),
			}
			if lv.GitHubRepo == "" {
				lv.GitHubRepo = RepoURL(lang.Repo)
			}
			if err := reg.Put(lv); err != nil {
				return Result{}, err
			}
			if err := reg.Update(lang.Name, v, edges); err != nil {
				return Result{}, err
			}
			res.Added = append(res.Added, Added{Language: lang.Name, Version: v, Latest: lv.IsLatest})
			r.log.Info("adding version", "language", lang.Name, "version", v, "latest", lv.IsLatest)
		}
	}
	return res, nil
}

func (r *Refresher) language(name string) (config.Language, bool) {
	for _, l := range r.cfg.Languages {
		if l.Name == name {
			return l, true
		}
	}
	return config.Language{}, false
}

// currentLatest returns the version of lang flagged latest, or "".
func currentLatest(reg *registry.Registry, lang string) string {
	for _, lv := range reg.All() {
		if lv.Language == lang && lv.IsLatest {
			return lv.Version
		}
	}
	return ""
}

// isNewer reports whether candidate orders before current newest first. An
// empty current always loses.
func isNewer(candidate, current string) bool {
	return current == "" || matrix.NewestFirst(candidate, current) < 0
}
