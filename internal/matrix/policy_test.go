package matrix

import (
	"slices"
	"testing"
)

func TestIsPrerelease(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"1.0.0":        false,
		"v1.2.3":       false,
		"1.0":          false,
		"1.0.0-rc1":    true,
		"2.0.0rc1":     true,
		"1.0.0-beta.1": true,
		"not-a-ver":    false,
	}

	for v, want := range tests {
		t.Run(v, func(t *testing.T) {
			t.Parallel()
			if got := IsPrerelease(v); got != want {
				t.Errorf("IsPrerelease(%q) = %v, want %v", v, got, want)
			}
		})
	}
}

func TestLatestStable(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		versions []string
		n        int
		want     []string
	}{
		"semver order not string order": {
			versions: []string{"1.9.0", "1.10.0", "1.2.0"},
			n:        2,
			want:     []string{"1.10.0", "1.9.0"},
		},
		"drops prereleases": {
			versions: []string{"1.0.0", "2.0.0rc1", "1.1.0-beta.1", "1.1.0"},
			n:        2,
			want:     []string{"1.1.0", "1.0.0"},
		},
		"fewer than cap": {
			versions: []string{"0.1.0"},
			n:        2,
			want:     []string{"0.1.0"},
		},
		"duplicates collapse": {
			versions: []string{"1.0.0", "1.0.0", "0.9.0"},
			n:        2,
			want:     []string{"1.0.0", "0.9.0"},
		},
		"unparsable sort last": {
			versions: []string{"abc", "1.0.0", "abd"},
			n:        3,
			want:     []string{"1.0.0", "abd", "abc"},
		},
		"empty": {
			versions: nil,
			n:        2,
			want:     []string{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := LatestStable(tc.versions, tc.n); !slices.Equal(got, tc.want) {
				t.Errorf("LatestStable(%v, %d) = %v, want %v", tc.versions, tc.n, got, tc.want)
			}
		})
	}
}

func TestLatestStableDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	in := []string{"1.0.0", "2.0.0", "1.5.0"}
	LatestStable(in, 2)
	if !slices.Equal(in, []string{"1.0.0", "2.0.0", "1.5.0"}) {
		t.Errorf("input modified: %v", in)
	}
}

func TestRefreshCompatibility(t *testing.T) {
	t.Parallel()

	all := map[string][]string{
		"python": {"1.0.0", "1.1.0", "1.2.0", "1.3.0rc1"},
		"rust":   {"0.1.0", "0.2.0"},
	}
	got := RefreshCompatibility("python", all, []string{"python", "rust", "typescript"}, 2)

	if want := []string{"1.2.0", "1.1.0"}; !slices.Equal(got["python"], want) {
		t.Errorf("python edges = %v, want %v", got["python"], want)
	}
	if want := []string{"0.2.0", "0.1.0"}; !slices.Equal(got["rust"], want) {
		t.Errorf("rust edges = %v, want %v", got["rust"], want)
	}
	if ts, ok := got["typescript"]; !ok || len(ts) != 0 {
		t.Errorf("typescript edges = %v (present %v), want empty list", ts, ok)
	}
	if len(got) != 3 {
		t.Errorf("RefreshCompatibility() languages = %d, want 3", len(got))
	}
}

func TestNewestFirst(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		a, b string
		want int
	}{
		"newer first":           {a: "1.10.0", b: "1.9.0", want: -1},
		"older second":          {a: "0.1.0", b: "0.2.0", want: 1},
		"equal":                 {a: "1.0.0", b: "v1.0.0", want: 0},
		"prerelease before GA":  {a: "2.0.0-rc1", b: "2.0.0", want: 1},
		"semver before garbage": {a: "abc", b: "1.0.0", want: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if got := NewestFirst(tc.a, tc.b); got != tc.want {
				t.Errorf("NewestFirst(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
