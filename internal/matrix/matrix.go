package matrix

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/sdkmatrix/internal/registry"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Combination is one client/server version pair to be tested, with the
// category catalog it is tested against. A Combination is never mutated
// after Build returns it.
type Combination struct {
	ClientLang    string
	ClientVersion string
	ServerLang    string
	ServerVersion string
	Categories    []string
}

// Key is the stable identifier of the pair, also used as its directory name.
func (c Combination) Key() string {
	return fmt.Sprintf("%s-%s-%s-%s", c.ClientLang, c.ClientVersion, c.ServerLang, c.ServerVersion)
}

// Compare orders combinations by client language, client version, server
// language, server version. Versions compare as plain strings so the order
// is reproducible for any version text.
func Compare(a, b Combination) int {
	return cmp.Or(
		cmp.Compare(a.ClientLang, b.ClientLang),
		cmp.Compare(a.ClientVersion, b.ClientVersion),
		cmp.Compare(a.ServerLang, b.ServerLang),
		cmp.Compare(a.ServerVersion, b.ServerVersion),
	)
}

// Sort orders cs in place using Compare.
func Sort(cs []Combination) {
	slices.SortStableFunc(cs, Compare)
}

// Filter restricts a Build. Empty fields match everything; a non-empty field
// naming a language or version absent from the registry is an error.
type Filter struct {
	ClientLang    string
	ClientVersion string
	ServerLang    string
	ServerVersion string
}

// PairPolicy decides whether a declared, resolvable pair is kept.
type PairPolicy func(client, server registry.LanguageVersion) bool

// Builder derives combinations from a registry.
type Builder struct {
	reg        *registry.Registry
	categories []string
	policies   []PairPolicy
	log        *slog.Logger
}

// NewBuilder returns a Builder over reg that attaches categories to every
// combination. When no policies are given, SkipSameLanguageLatest applies.
// If logger is nil, slog.Default() is used.
func NewBuilder(reg *registry.Registry, categories []string, logger *slog.Logger, policies ...PairPolicy) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if len(policies) == 0 {
		policies = []PairPolicy{SkipSameLanguageLatest}
	}
	return &Builder{
		reg:        reg,
		categories: slices.Clone(categories),
		policies:   policies,
		log:        logger,
	}
}

// Build returns every combination allowed by f, sorted with Compare.
//
// A pair (client, server) is included iff the client declares an edge to
// the server's language and version, that server version exists in the
// registry, and every policy keeps it. Edges to versions missing from the
// registry are dropped silently.
func (b *Builder) Build(f Filter) ([]Combination, error) {
	if err := b.checkFilter(f); err != nil {
		return nil, err
	}

	var out []Combination
	for _, client := range b.reg.All() {
		if !matches(f.ClientLang, client.Language) || !matches(f.ClientVersion, client.Version) {
			continue
		}
		for _, serverLang := range sortedKeys(client.Compatibility) {
			if !matches(f.ServerLang, serverLang) {
				continue
			}
			for _, serverVersion := range sets.List(client.Compatibility[serverLang]) {
				if !matches(f.ServerVersion, serverVersion) {
					continue
				}
				server, err := b.reg.Get(serverLang, serverVersion)
				if err != nil {
					b.log.Debug("dropping stale compatibility edge",
						"client", client.Language+"/"+client.Version,
						"server", serverLang+"/"+serverVersion)
					continue
				}
				if !b.keep(client, server) {
					continue
				}
				out = append(out, Combination{
					ClientLang:    client.Language,
					ClientVersion: client.Version,
					ServerLang:    server.Language,
					ServerVersion: server.Version,
					Categories:    slices.Clone(b.categories),
				})
			}
		}
	}

	Sort(out)
	b.log.Debug("matrix built", "combinations", len(out))
	return out, nil
}

func (b *Builder) keep(client, server registry.LanguageVersion) bool {
	for _, p := range b.policies {
		if !p(client, server) {
			return false
		}
	}
	return true
}

func (b *Builder) checkFilter(f Filter) error {
	check := func(role, lang, version string) error {
		if lang == "" {
			if version != "" {
				return fmt.Errorf("%s version %s given without a language: %w", role, version, sentinel.ErrNotFound)
			}
			return nil
		}
		if !b.reg.HasLanguage(lang) {
			return fmt.Errorf("%s language %s: %w", role, lang, sentinel.ErrNotFound)
		}
		if version != "" && !b.reg.Has(lang, version) {
			return fmt.Errorf("%s %s %s: %w", role, lang, version, sentinel.ErrNotFound)
		}
		return nil
	}
	if err := check("client", f.ClientLang, f.ClientVersion); err != nil {
		return err
	}
	return check("server", f.ServerLang, f.ServerVersion)
}

func matches(want, got string) bool {
	return want == "" || want == got
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
