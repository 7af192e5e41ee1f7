package refresh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/envgen"
	"github.com/giantswarm/sdkmatrix/internal/fileutil"
	"github.com/giantswarm/sdkmatrix/internal/registry"
)

const existingSource = `{
  "python": {
    "1.0.0": {
      "version": "1.0.0",
      "docker_image": "python:3.11-slim",
      "ports": ["8000"],
      "is_latest": true,
      "compatibility_matrix": {"python": ["1.0.0"]}
    }
  }
}`

type fakeSource struct {
	mu       sync.Mutex
	releases map[string][]Release
	errs     map[string]error
	calls    []string
}

func (f *fakeSource) Releases(_ context.Context, lang config.Language) ([]Release, error) {
	f.mu.Lock()
	f.calls = append(f.calls, lang.Name)
	f.mu.Unlock()
	if err := f.errs[lang.Name]; err != nil {
		return nil, err
	}
	return f.releases[lang.Name], nil
}

func tag(name string) Release {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return Release{Tag: name, PublishedAt: &at}
}

func setupRefresh(t *testing.T, existing string, src ReleaseSource) (*Refresher, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		Languages:     config.Default().Languages,
		RegistryPath:  filepath.Join(dir, "sdkinfo.json"),
		TemplatesDir:  filepath.Join(dir, "templates"),
		MaxCompatible: 2,
	}
	if existing != "" {
		if err := os.WriteFile(cfg.RegistryPath, []byte(existing), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return New(cfg, src, nil), cfg
}

func TestRefreshAddsNewVersions(t *testing.T) {
	t.Parallel()

	src := &fakeSource{releases: map[string][]Release{
		"python":     {tag("v1.2.0"), tag("v1.1.0"), tag("v1.0.0"), tag("v1.3.0rc1")},
		"typescript": {tag("v2.0.0")},
		"rust":       {tag("v0.1.0")},
	}}
	r, cfg := setupRefresh(t, existingSource, src)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Known != 1 {
		t.Errorf("Known = %d, want 1", res.Known)
	}
	var added []string
	for _, a := range res.Added {
		added = append(added, a.Language+"@"+a.Version)
	}
	slices.Sort(added)
	want := []string{"python@1.1.0", "python@1.2.0", "python@1.3.0-rc1", "rust@0.1.0", "typescript@2.0.0"}
	if !slices.Equal(added, want) {
		t.Fatalf("Added = %v, want %v", added, want)
	}

	reg, err := registry.LoadFile(cfg.RegistryPath, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	old, err := reg.Get("python", "1.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if old.IsLatest {
		t.Error("python 1.0.0 kept the latest flag")
	}
	if !old.Compatible("python", "1.0.0") || old.Compatible("rust", "0.1.0") {
		t.Errorf("existing edges changed: %v", old.Compatibility)
	}

	rc, err := reg.Get("python", "1.3.0-rc1")
	if err != nil {
		t.Fatal(err)
	}
	if rc.IsLatest {
		t.Error("python prerelease took the latest flag")
	}
	if stable, _ := reg.Get("python", "1.2.0"); !stable.IsLatest {
		t.Error("newest stable python release is not latest")
	}
	if rc.PackageName != "mcp-python-sdk==1.3.0-rc1" || rc.DockerImage != "python:3.11-slim" {
		t.Errorf("record = %+v", rc)
	}
	if len(rc.Ports) != 16 || rc.Ports[0] != "8000" {
		t.Errorf("ports = %v, want the python range", rc.Ports)
	}
	if rc.GitHubRepo != RepoURL("modelcontextprotocol/python-sdk") {
		t.Errorf("GitHubRepo = %q", rc.GitHubRepo)
	}
	for _, v := range []string{"1.2.0", "1.1.0"} {
		if !rc.Compatible("python", v) {
			t.Errorf("missing python edge to %s", v)
		}
	}
	if rc.Compatible("python", "1.0.0") || rc.Compatible("python", "1.3.0-rc1") {
		t.Errorf("python edges = %v, want the two newest stable only", rc.Compatibility["python"])
	}
	if !rc.Compatible("rust", "0.1.0") || !rc.Compatible("typescript", "2.0.0") {
		t.Errorf("cross-language edges = %v", rc.Compatibility)
	}

	if _, err := os.Stat(cfg.RegistryPath + fileutil.BackupSuffix); err != nil {
		t.Errorf("backup missing: %v", err)
	}
	manifest := filepath.Join(envgen.ServiceDir(cfg.TemplatesDir, "rust", config.RoleServer, "0.1.0"), envgen.CargoFile)
	if _, err := os.Stat(manifest); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
	if len(res.Manifests) != 2*len(res.Added) {
		t.Errorf("Manifests = %d, want %d", len(res.Manifests), 2*len(res.Added))
	}
}

func TestRefreshUpToDateWritesNothing(t *testing.T) {
	t.Parallel()

	src := &fakeSource{releases: map[string][]Release{"python": {tag("v1.0.0")}}}
	r, cfg := setupRefresh(t, existingSource, src)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(res.Added) != 0 || res.Known != 1 {
		t.Errorf("Run() = %+v, want nothing added", res)
	}
	if _, err := os.Stat(cfg.RegistryPath + fileutil.BackupSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("backup stat error = %v, want no backup", err)
	}
	data, err := os.ReadFile(cfg.RegistryPath)
	if err != nil || string(data) != existingSource {
		t.Errorf("version source rewritten: %v", err)
	}
}

func TestRefreshOlderReleaseDoesNotTakeLatest(t *testing.T) {
	t.Parallel()

	src := &fakeSource{releases: map[string][]Release{"python": {tag("v0.9.0")}}}
	r, cfg := setupRefresh(t, existingSource, src)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || res.Added[0].Latest {
		t.Fatalf("Added = %+v, want one non-latest version", res.Added)
	}
	reg, err := registry.LoadFile(cfg.RegistryPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if lv, _ := reg.Get("python", "1.0.0"); !lv.IsLatest {
		t.Error("python 1.0.0 lost the latest flag to an older release")
	}
}

func TestRefreshPrereleaseOnlyKeepsLatest(t *testing.T) {
	t.Parallel()

	src := &fakeSource{releases: map[string][]Release{"python": {tag("v2.0.0rc1")}}}
	r, cfg := setupRefresh(t, existingSource, src)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || res.Added[0].Version != "2.0.0-rc1" || res.Added[0].Latest {
		t.Fatalf("Added = %+v, want one non-latest prerelease", res.Added)
	}
	reg, err := registry.LoadFile(cfg.RegistryPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if lv, _ := reg.Get("python", "1.0.0"); !lv.IsLatest {
		t.Error("python 1.0.0 lost the latest flag to a prerelease")
	}
}

func TestRefreshMissingSourceStartsEmpty(t *testing.T) {
	t.Parallel()

	src := &fakeSource{releases: map[string][]Release{"rust": {tag("v0.2.0"), tag("0.2.0")}}}
	r, cfg := setupRefresh(t, "", src)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Added) != 1 || !res.Added[0].Latest {
		t.Fatalf("Added = %+v, want one latest version", res.Added)
	}
	reg, err := registry.LoadFile(cfg.RegistryPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reg.Has("rust", "0.2.0") {
		t.Error("rust 0.2.0 not persisted")
	}
}

func TestRefreshFetchErrorWritesNothing(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		releases: map[string][]Release{"python": {tag("v2.0.0")}},
		errs:     map[string]error{"typescript": ErrRateLimited},
	}
	r, cfg := setupRefresh(t, existingSource, src)

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Run() error = %v, want ErrRateLimited", err)
	}
	data, err := os.ReadFile(cfg.RegistryPath)
	if err != nil || string(data) != existingSource {
		t.Errorf("version source changed after a failed fetch: %v", err)
	}
}

func TestRefreshInvalidSource(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	r, _ := setupRefresh(t, "{not json", src)

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("Run() succeeded on a malformed version source")
	}
	if len(src.calls) != 0 {
		t.Errorf("source called %v before the version source was read", src.calls)
	}
}
