package sdkmatrix_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/giantswarm/sdkmatrix"
)

const versionSource = `{
  "python": {
    "1.0.0": {
      "version": "1.0.0",
      "docker_image": "python:3.11-slim",
      "ports": ["8000"],
      "is_latest": true,
      "compatibility_matrix": {"python": ["1.0.0"], "typescript": ["2.0.0"]}
    }
  },
  "typescript": {
    "2.0.0": {
      "version": "2.0.0",
      "docker_image": "node:20-slim",
      "ports": ["8016"],
      "is_latest": true,
      "compatibility_matrix": {"python": ["1.0.0"]}
    }
  }
}`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func newEngine(t *testing.T, opts ...sdkmatrix.Option) (sdkmatrix.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"sdkinfo.json": versionSource,
		"templates/python/client/Dockerfile.template":     "FROM python:3.11-slim\nCMD ${COMMAND}\n",
		"templates/python/server/Dockerfile.template":     "FROM python:3.11-slim\nCMD ${COMMAND}\n",
		"templates/typescript/client/Dockerfile.template": "FROM node:20-slim\nCMD ${COMMAND}\n",
		"templates/typescript/server/Dockerfile.template": "FROM node:20-slim\nCMD ${COMMAND}\n",
		"templates/docker-compose.template.yml":           "services:\n  ${ROLE}:\n    ports: [\"${PORT}:${PORT}\"]\n",
		"templates/client-server-compose.template.yml":    "# ${CLIENT_LANG} ${CLIENT_PORT} ${SERVER_LANG} ${SERVER_PORT}\n",
	})

	opts = append([]sdkmatrix.Option{
		sdkmatrix.WithRegistryPath(filepath.Join(dir, "sdkinfo.json")),
		sdkmatrix.WithTemplatesDir(filepath.Join(dir, "templates")),
		sdkmatrix.WithOutputDir(filepath.Join(dir, "docker")),
		sdkmatrix.WithCacheDir(filepath.Join(dir, "cache")),
		sdkmatrix.WithSettleDelay(0),
		sdkmatrix.WithDriver(passDriver{}),
	}, opts...)
	eng, err := sdkmatrix.New(opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return eng, dir
}

func TestEngineEndToEnd(t *testing.T) {
	t.Parallel()
	eng, dir := newEngine(t)
	ctx := context.Background()

	plan, report, err := eng.Generate(ctx, sdkmatrix.Filter{})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !report.OK() {
		t.Fatalf("Generate() failures: %v", report.Err())
	}
	// python 1.0.0 is latest, so its self pair is skipped.
	if len(plan.Combinations) != 2 {
		t.Fatalf("Generate() planned %d combinations, want 2", len(plan.Combinations))
	}
	joint := filepath.Join(dir, "docker", "combinations", "python-1.0.0-typescript-2.0.0", "docker-compose.yml")
	if got, err := os.ReadFile(joint); err != nil || string(got) != "# python 15000 typescript 15008\n" {
		t.Errorf("joint descriptor = %q, %v", got, err)
	}

	summary, err := eng.Run(ctx, sdkmatrix.Target{})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if summary.Total != 2 || !summary.OK() || summary.Rate() != 100 {
		t.Errorf("summary = %d total, ok %v, rate %.1f", summary.Total, summary.OK(), summary.Rate())
	}
}

func TestEngineAllPairs(t *testing.T) {
	t.Parallel()
	eng, _ := newEngine(t, sdkmatrix.WithAllPairs())

	plan, err := eng.Matrix(sdkmatrix.Filter{ClientLang: "python"})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Combinations) != 2 {
		t.Errorf("Matrix() = %d combinations, want 2", len(plan.Combinations))
	}
}

func TestEngineTargetErrors(t *testing.T) {
	t.Parallel()
	eng, _ := newEngine(t)
	ctx := context.Background()

	if _, err := eng.Matrix(sdkmatrix.Filter{ServerLang: "python", ServerVersion: "9.9.9"}); !errors.Is(err, sdkmatrix.ErrNotFound) {
		t.Errorf("Matrix(unknown version) error = %v, want ErrNotFound", err)
	}
	if _, err := eng.Run(ctx, sdkmatrix.Target{Name: "python-1.0.0-typescript-2.0.0"}); !errors.Is(err, sdkmatrix.ErrNotFound) {
		t.Errorf("Run(before generate) error = %v, want ErrNotFound", err)
	}
}

type oneRelease struct{}

func (oneRelease) Releases(_ context.Context, lang sdkmatrix.Language) ([]sdkmatrix.Release, error) {
	if lang.Name != "python" {
		return nil, nil
	}
	return []sdkmatrix.Release{{Tag: "v1.1.0"}}, nil
}

func TestEngineRefresh(t *testing.T) {
	t.Parallel()
	eng, dir := newEngine(t, sdkmatrix.WithReleaseSource(oneRelease{}))

	res, err := eng.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error: %v", err)
	}
	if len(res.Added) != 1 || res.Added[0].Version != "1.1.0" {
		t.Fatalf("Added = %+v", res.Added)
	}
	if _, err := os.Stat(filepath.Join(dir, "sdkinfo.json.bak")); err != nil {
		t.Errorf("backup missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "templates", "python", "client", "1.1.0", "requirements.txt")); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
}
