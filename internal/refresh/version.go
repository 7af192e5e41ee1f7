package refresh

import (
	"bufio"
	"strings"

	"github.com/blang/semver/v4"
)

// DefaultCargoVersion is used when a manifest version source cannot be read.
const DefaultCargoVersion = "0.1.0"

// NormalizeVersion turns a release tag into a version key. A leading "v" is
// dropped and an "rc" marker becomes a semver prerelease. Tags that still do
// not parse fall back to the part before "rc" when that is valid semver and
// are kept as they are otherwise.
func NormalizeVersion(tag string) string {
	v := strings.TrimLeft(strings.TrimSpace(tag), "v")
	if strings.Contains(v, "rc") && !strings.Contains(v, "-rc") {
		v = strings.Replace(v, "rc", "-rc", 1)
	}
	if sv, err := semver.Parse(v); err == nil {
		return sv.String()
	}
	if base, _, ok := strings.Cut(v, "rc"); ok {
		if sv, err := semver.Parse(strings.TrimSuffix(base, "-")); err == nil {
			return sv.String()
		}
	}
	return v
}

// cargoVersion returns the first top-level version field of a Cargo.toml
// document.
func cargoVersion(doc string) (string, bool) {
	sc := bufio.NewScanner(strings.NewReader(doc))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "version") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != "version" {
			continue
		}
		v := strings.Trim(strings.TrimSpace(value), `"'`)
		if v == "" {
			continue
		}
		return NormalizeVersion(v), true
	}
	return "", false
}
