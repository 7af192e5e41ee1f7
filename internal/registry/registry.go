package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// DefaultPort is the service port used when a version lists no ports.
const DefaultPort = 8000

// naiveTimeLayout is the timestamp form written without a zone offset.
const naiveTimeLayout = "2006-01-02T15:04:05"

// LanguageVersion is one released version of one SDK.
type LanguageVersion struct {
	Language     string
	Version      string
	ReleaseDate  *time.Time
	IsLatest     bool
	IsDeprecated bool
	DockerImage  string
	Ports        []string
	GitHubRepo   string
	PackageName  string

	// Compatibility maps a language to the versions of it this version is
	// declared to interoperate with.
	Compatibility map[string]sets.Set[string]
}

// Compatible reports whether lv declares an edge to lang at version.
func (lv LanguageVersion) Compatible(lang, version string) bool {
	return lv.Compatibility[lang].Has(version)
}

// ServicePort returns the port a single-role environment listens on: the
// first listed port, or DefaultPort when none is listed.
func (lv LanguageVersion) ServicePort() int {
	if len(lv.Ports) == 0 {
		return DefaultPort
	}
	p, err := parsePort(lv.Ports[0])
	if err != nil {
		return DefaultPort
	}
	return p
}

func (lv LanguageVersion) clone() LanguageVersion {
	out := lv
	out.Ports = slices.Clone(lv.Ports)
	if lv.ReleaseDate != nil {
		d := *lv.ReleaseDate
		out.ReleaseDate = &d
	}
	out.Compatibility = cloneEdges(lv.Compatibility)
	return out
}

func cloneEdges(in map[string]sets.Set[string]) map[string]sets.Set[string] {
	if in == nil {
		return nil
	}
	out := make(map[string]sets.Set[string], len(in))
	for lang, vs := range in {
		out[lang] = vs.Clone()
	}
	return out
}

// Registry is an in-memory index of SDK versions keyed by language and
// version. It is owned by a single engine and is not safe for concurrent
// mutation; readers receive copies.
type Registry struct {
	entries map[string]map[string]LanguageVersion
	log     *slog.Logger
}

// New returns an empty Registry. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]map[string]LanguageVersion),
		log:     logger,
	}
}

// record is the JSON shape of one version in the version source.
type record struct {
	Version       string              `json:"version"`
	ReleaseDate   string              `json:"release_date,omitempty"`
	GitHubRepo    string              `json:"github_repo,omitempty"`
	PackageName   string              `json:"package_name,omitempty"`
	DockerImage   string              `json:"docker_image"`
	Ports         []string            `json:"ports"`
	IsLatest      bool                `json:"is_latest"`
	IsDeprecated  bool                `json:"is_deprecated"`
	Compatibility map[string][]string `json:"compatibility_matrix"`
}

// Load parses a version source document. Malformed input and records missing
// a required field yield an error matching sentinel.ErrConfig.
func Load(r io.Reader, logger *slog.Logger) (*Registry, error) {
	var doc map[string]map[string]record
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode version source: %w", sentinel.ErrConfig, err)
	}

	reg := New(logger)
	var errs []error
	for lang, versions := range doc {
		for key, rec := range versions {
			lv, err := fromRecord(lang, key, rec)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			reg.put(lv)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrConfig, errors.Join(errs...))
	}
	return reg, nil
}

// LoadFile is Load for a file on disk.
func LoadFile(path string, logger *slog.Logger) (*Registry, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("%w: open version source %s: %w", sentinel.ErrConfig, path, err)
	}
	defer func() { _ = f.Close() }()

	reg, err := Load(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

func fromRecord(lang, key string, rec record) (LanguageVersion, error) {
	where := lang + "/" + key
	if rec.Version == "" {
		return LanguageVersion{}, fmt.Errorf("%s: missing version", where)
	}
	if rec.Version != key {
		return LanguageVersion{}, fmt.Errorf("%s: version field %q does not match its key", where, rec.Version)
	}
	if rec.DockerImage == "" {
		return LanguageVersion{}, fmt.Errorf("%s: missing docker_image", where)
	}
	if rec.Ports == nil {
		return LanguageVersion{}, fmt.Errorf("%s: missing ports", where)
	}
	for _, p := range rec.Ports {
		if _, err := parsePort(p); err != nil {
			return LanguageVersion{}, fmt.Errorf("%s: %w", where, err)
		}
	}

	lv := LanguageVersion{
		Language:     lang,
		Version:      rec.Version,
		IsLatest:     rec.IsLatest,
		IsDeprecated: rec.IsDeprecated,
		DockerImage:  rec.DockerImage,
		Ports:        rec.Ports,
		GitHubRepo:   rec.GitHubRepo,
		PackageName:  rec.PackageName,
	}
	if rec.ReleaseDate != "" {
		d, err := parseReleaseDate(rec.ReleaseDate)
		if err != nil {
			return LanguageVersion{}, fmt.Errorf("%s: %w", where, err)
		}
		lv.ReleaseDate = &d
	}
	if len(rec.Compatibility) > 0 {
		lv.Compatibility = make(map[string]sets.Set[string], len(rec.Compatibility))
		for target, versions := range rec.Compatibility {
			lv.Compatibility[target] = sets.New(versions...)
		}
	}
	return lv, nil
}

func parsePort(raw string) (int, error) {
	p, err := nat.ParsePort(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if p == 0 {
		return 0, fmt.Errorf("invalid port %q", raw)
	}
	return p, nil
}

func parseReleaseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(naiveTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid release_date %q", s)
	}
	return t, nil
}

func (r *Registry) put(lv LanguageVersion) {
	versions, ok := r.entries[lv.Language]
	if !ok {
		versions = make(map[string]LanguageVersion)
		r.entries[lv.Language] = versions
	}
	versions[lv.Version] = lv
}

// Get returns a copy of the record for lang at version.
func (r *Registry) Get(lang, version string) (LanguageVersion, error) {
	lv, ok := r.entries[lang][version]
	if !ok {
		return LanguageVersion{}, fmt.Errorf("%s %s: %w", lang, version, sentinel.ErrNotFound)
	}
	return lv.clone(), nil
}

// Has reports whether lang at version is present.
func (r *Registry) Has(lang, version string) bool {
	_, ok := r.entries[lang][version]
	return ok
}

// HasLanguage reports whether any version of lang is present.
func (r *Registry) HasLanguage(lang string) bool {
	return len(r.entries[lang]) > 0
}

// Languages returns the languages present, sorted.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.entries))
	for lang, versions := range r.entries {
		if len(versions) > 0 {
			out = append(out, lang)
		}
	}
	slices.Sort(out)
	return out
}

// Versions returns the versions present for lang, sorted.
func (r *Registry) Versions(lang string) []string {
	out := make([]string, 0, len(r.entries[lang]))
	for v := range r.entries[lang] {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// All returns copies of every record ordered by language, then version.
func (r *Registry) All() []LanguageVersion {
	var out []LanguageVersion
	for _, lang := range r.Languages() {
		for _, v := range r.Versions(lang) {
			out = append(out, r.entries[lang][v].clone())
		}
	}
	return out
}

// Update replaces the compatibility edges of lang at version. Unknown
// languages or versions yield sentinel.ErrNotFound.
func (r *Registry) Update(lang, version string, edges map[string][]string) error {
	lv, ok := r.entries[lang][version]
	if !ok {
		return fmt.Errorf("update %s %s: %w", lang, version, sentinel.ErrNotFound)
	}
	lv.Compatibility = make(map[string]sets.Set[string], len(edges))
	for target, versions := range edges {
		lv.Compatibility[target] = sets.New(versions...)
	}
	r.entries[lang][version] = lv
	r.log.Debug("compatibility edges updated", "language", lang, "version", version, "targets", len(edges))
	return nil
}

// Put adds or replaces a record. When the record is flagged latest, the
// flag is cleared on every other version of the same language.
func (r *Registry) Put(lv LanguageVersion) error {
	if lv.Language == "" || lv.Version == "" {
		return fmt.Errorf("%w: record needs a language and a version", sentinel.ErrConfig)
	}
	if lv.IsLatest {
		for v, other := range r.entries[lv.Language] {
			if other.IsLatest {
				other.IsLatest = false
				r.entries[lv.Language][v] = other
			}
		}
	}
	r.put(lv.clone())
	return nil
}

// Encode writes the registry as a version source document. Output is
// deterministic: encoding/json sorts map keys and edge lists are sorted.
func (r *Registry) Encode(w io.Writer) error {
	doc := make(map[string]map[string]record, len(r.entries))
	for lang, versions := range r.entries {
		if len(versions) == 0 {
			continue
		}
		out := make(map[string]record, len(versions))
		for v, lv := range versions {
			out[v] = toRecord(lv)
		}
		doc[lang] = out
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode version source: %w", err)
	}
	return nil
}

func toRecord(lv LanguageVersion) record {
	rec := record{
		Version:      lv.Version,
		GitHubRepo:   lv.GitHubRepo,
		PackageName:  lv.PackageName,
		DockerImage:  lv.DockerImage,
		Ports:        lv.Ports,
		IsLatest:     lv.IsLatest,
		IsDeprecated: lv.IsDeprecated,
	}
	if rec.Ports == nil {
		rec.Ports = []string{}
	}
	if lv.ReleaseDate != nil {
		rec.ReleaseDate = lv.ReleaseDate.UTC().Format(time.RFC3339)
	}
	rec.Compatibility = make(map[string][]string, len(lv.Compatibility))
	for target, vs := range lv.Compatibility {
		rec.Compatibility[target] = sets.List(vs)
	}
	return rec
}
