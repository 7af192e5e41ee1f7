package matrix

import (
	"slices"
	"strings"

	"github.com/blang/semver/v4"

	"github.com/giantswarm/sdkmatrix/internal/registry"
)

// SkipSameLanguageLatest drops same-language pairs whose client is the
// language's latest version. Cross-language pairs are always kept.
func SkipSameLanguageLatest(client, server registry.LanguageVersion) bool {
	return client.Language != server.Language || !client.IsLatest
}

// IsPrerelease reports whether v is a release candidate or any other semver
// prerelease.
func IsPrerelease(v string) bool {
	if strings.Contains(v, "rc") {
		return true
	}
	sv, err := semver.ParseTolerant(v)
	if err != nil {
		return false
	}
	return len(sv.Pre) > 0
}

// LatestStable drops prereleases from versions, orders the rest newest first
// and keeps at most n. Versions that are not valid semver sort after valid
// ones, in reverse string order.
func LatestStable(versions []string, n int) []string {
	stable := make([]string, 0, len(versions))
	for _, v := range versions {
		if !IsPrerelease(v) && !slices.Contains(stable, v) {
			stable = append(stable, v)
		}
	}
	slices.SortStableFunc(stable, NewestFirst)
	if n >= 0 && len(stable) > n {
		stable = stable[:n]
	}
	return stable
}

// NewestFirst orders versions newest first by semver for use with
// slices.SortFunc. Versions that are not valid semver sort after valid ones,
// in reverse string order.
func NewestFirst(a, b string) int {
	va, errA := semver.ParseTolerant(a)
	vb, errB := semver.ParseTolerant(b)
	switch {
	case errA == nil && errB == nil:
		return vb.Compare(va)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(b, a)
	}
}

// RefreshCompatibility computes the compatibility edges written for a newly
// discovered version of lang: for lang itself and for every other language
// in languages, the n most recent stable versions known in all.
func RefreshCompatibility(lang string, all map[string][]string, languages []string, n int) map[string][]string {
	out := make(map[string][]string, len(languages)+1)
	if versions, ok := all[lang]; ok {
		out[lang] = LatestStable(versions, n)
	}
	for _, other := range languages {
		if other == lang {
			continue
		}
		out[other] = LatestStable(all[other], n)
	}
	return out
}
