package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
	if got := len(cfg.Categories); got != 24 {
		t.Errorf("len(Categories) = %d, want 24", got)
	}
	if got := cfg.LanguageNames(); strings.Join(got, ",") != "python,typescript,rust" {
		t.Errorf("LanguageNames() = %v", got)
	}
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	a := Default()
	a.Categories[0] = "mutated"
	a.Timeouts["transport"] = time.Hour

	b := Default()
	if b.Categories[0] != "connection" {
		t.Errorf("Categories[0] = %q, mutation leaked into Default", b.Categories[0])
	}
	if b.Timeouts["transport"] != 60*time.Second {
		t.Errorf("Timeouts[transport] = %v, mutation leaked into Default", b.Timeouts["transport"])
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.DefaultTimeout = 0
	cfg.Ports.Offset = 0
	cfg.Paths.Output = ""
	cfg.Languages[0].BaseImage = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !errors.Is(err, sentinel.ErrConfig) {
		t.Errorf("Validate() error = %v, want ErrConfig", err)
	}
	for _, want := range []string{
		"default timeout must be greater than 0",
		"port offset must be greater than 0",
		"output directory must not be empty",
		"language python: base image must not be empty",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateLanguageCatalog(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*Config)
		wantErr string
	}{
		"duplicate language": {
			mutate:  func(c *Config) { c.Languages = append(c.Languages, c.Languages[0]) },
			wantErr: "language python: duplicate entry",
		},
		"inverted port range": {
			mutate:  func(c *Config) { c.Languages[1].PortEnd = c.Languages[1].PortStart - 1 },
			wantErr: "language typescript: invalid port range",
		},
		"unknown package manager": {
			mutate:  func(c *Config) { c.Languages[2].PackageManager = "gem" },
			wantErr: `language rust: unknown package manager "gem"`,
		},
		"missing command": {
			mutate:  func(c *Config) { c.Languages[0].ServerCommand = "" },
			wantErr: "language python: client and server commands are required",
		},
		"duplicate category": {
			mutate:  func(c *Config) { c.Categories = append(c.Categories, "auth") },
			wantErr: "category auth: duplicate entry",
		},
		"base plus offset above max": {
			mutate:  func(c *Config) { c.Ports.Base = 65530 },
			wantErr: "port base 65530 plus offset 8 exceeds max 65535",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	t.Parallel()

	doc := `
settle_delay: 2s
step_timeout: 10m
timeouts:
  connection: 15s
ports:
  base: 20000
paths:
  output: out
`
	cfg, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SettleDelay != 2*time.Second {
		t.Errorf("SettleDelay = %v, want 2s", cfg.SettleDelay)
	}
	if cfg.StepTimeout != 10*time.Minute {
		t.Errorf("StepTimeout = %v, want 10m", cfg.StepTimeout)
	}
	if cfg.Ports.Base != 20000 || cfg.Ports.Offset != DefaultPortOffset {
		t.Errorf("Ports = %+v, want base 20000 with default offset", cfg.Ports)
	}
	if cfg.Paths.Output != "out" || cfg.Paths.Registry != DefaultRegistryPath {
		t.Errorf("Paths = %+v", cfg.Paths)
	}
	if got := cfg.Timeout("connection"); got != 15*time.Second {
		t.Errorf("Timeout(connection) = %v, want 15s", got)
	}
	if got := cfg.Timeout("transport"); got != 60*time.Second {
		t.Errorf("Timeout(transport) = %v, want default table value 60s", got)
	}
	if len(cfg.Languages) != 3 {
		t.Errorf("len(Languages) = %d, want defaults kept", len(cfg.Languages))
	}
}

func TestLoadEmptyDocumentIsDefault(t *testing.T) {
	t.Parallel()

	cfg, err := Load(strings.NewReader("# nothing here\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Ports.Base != DefaultPortBase {
		t.Errorf("Ports.Base = %d, want %d", cfg.Ports.Base, DefaultPortBase)
	}
}

func TestLoadRejectsUnknownAndInvalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"unknown key":      "no_such_key: 1\n",
		"invalid duration": "settle_delay: soon\n",
		"fails validation": "max_compatible: 0\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Load(strings.NewReader(doc))
			if !errors.Is(err, sentinel.ErrConfig) {
				t.Fatalf("Load() error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sdkmatrix.yaml")
	if err := os.WriteFile(path, []byte("project_prefix: ci\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.ProjectPrefix != "ci" {
		t.Errorf("ProjectPrefix = %q, want ci", cfg.ProjectPrefix)
	}

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, sentinel.ErrConfig) {
		t.Errorf("LoadFile(missing) error = %v, want ErrConfig", err)
	}
}

func TestCommand(t *testing.T) {
	t.Parallel()

	cfg := Default()

	tests := map[string]struct {
		lang    string
		role    Role
		want    string
		wantErr error
	}{
		"python client":     {lang: "python", role: RoleClient, want: "python -m basic_client"},
		"typescript server": {lang: "typescript", role: RoleServer, want: "npm run start:server"},
		"rust server":       {lang: "rust", role: RoleServer, want: "cargo run --example basic_server"},
		"unknown language":  {lang: "go", role: RoleClient, wantErr: sentinel.ErrNotFound},
		"unknown role":      {lang: "python", role: Role("proxy"), wantErr: sentinel.ErrNotFound},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := cfg.Command(tc.lang, tc.role)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Command() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Command() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("Command() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLanguagePorts(t *testing.T) {
	t.Parallel()

	l, ok := Default().Language("typescript")
	if !ok {
		t.Fatal("typescript missing from default catalog")
	}
	ports := l.Ports()
	if len(ports) != 16 || ports[0] != "8016" || ports[15] != "8031" {
		t.Errorf("Ports() = %v, want 8016..8031", ports)
	}
}
