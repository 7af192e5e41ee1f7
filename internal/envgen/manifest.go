package envgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/fileutil"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Manifest file names per package manager.
const (
	RequirementsFile = "requirements.txt"
	PackageJSONFile  = "package.json"
	CargoFile        = "Cargo.toml"
)

// PackageSpec returns how a pinned SDK version is written in the package
// manager's dependency list.
func PackageSpec(lang config.Language, version string) string {
	switch lang.PackageManager {
	case config.PackagePip:
		return fmt.Sprintf("%s==%s", lang.PackageName, version)
	case config.PackageCargo:
		return fmt.Sprintf("%s = \"=%s\"", lang.PackageName, version)
	default:
		return lang.PackageName
	}
}

// ManifestFile returns the manifest file name used by a package manager.
func ManifestFile(manager string) (string, error) {
	switch manager {
	case config.PackagePip:
		return RequirementsFile, nil
	case config.PackageNpm:
		return PackageJSONFile, nil
	case config.PackageCargo:
		return CargoFile, nil
	default:
		return "", fmt.Errorf("package manager %q: %w", manager, sentinel.ErrNotFound)
	}
}

// RenderManifest returns the dependency manifest that pins version of lang
// together with the test tooling its environments need.
func RenderManifest(lang config.Language, version string) ([]byte, error) {
	switch lang.PackageManager {
	case config.PackagePip:
		return renderRequirements(lang, version), nil
	case config.PackageNpm:
		return renderPackageJSON(lang, version)
	case config.PackageCargo:
		return renderCargo(lang, version), nil
	default:
		return nil, fmt.Errorf("language %s: package manager %q: %w", lang.Name, lang.PackageManager, sentinel.ErrNotFound)
	}
}

// SuiteDirs are the test suite directories created next to every manifest.
var SuiteDirs = []string{"e2e", "unit", "integration"}

// WriteManifests writes the manifest of lang at version into the client
// and server template directories under root and creates the SuiteDirs
// below each, returning the written manifest paths.
func WriteManifests(root string, lang config.Language, version string) ([]string, error) {
	name, err := ManifestFile(lang.PackageManager)
	if err != nil {
		return nil, err
	}
	data, err := RenderManifest(lang, version)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(roles))
	for _, role := range roles {
		dir := ServiceDir(root, lang.Name, role, version)
		dst := filepath.Join(dir, name)
		if err := fileutil.WriteFileAtomic(dst, data, artifactMode); err != nil {
			return written, fmt.Errorf("write manifest for %s %s: %w", lang.Name, version, err)
		}
		written = append(written, dst)
		for _, suite := range SuiteDirs {
			if err := fileutil.EnsureDir(filepath.Join(dir, suite)); err != nil {
				return written, fmt.Errorf("create %s suite for %s %s: %w", suite, lang.Name, version, err)
			}
		}
	}
	return written, nil
}

func renderRequirements(lang config.Language, version string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s %s\n\n", lang.Name, version)
	fmt.Fprintln(&b, PackageSpec(lang, version))
	b.WriteString(`
# test
pytest>=7.0.0
pytest-asyncio>=0.21.0
pytest-cov>=4.0.0

# lint
black>=23.0.0
flake8>=6.0.0
mypy>=1.0.0
`)
	return b.Bytes()
}

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func renderPackageJSON(lang config.Language, version string) ([]byte, error) {
	doc := packageJSON{
		Name:    fmt.Sprintf("sdkmatrix-%s-%s", lang.Name, version),
		Version: version,
		Private: true,
		Scripts: map[string]string{
			"build":        "tsc",
			"test":         "jest",
			"start:client": "ts-node src/client.ts",
			"start:server": "ts-node src/server.ts",
		},
		Dependencies: map[string]string{
			lang.PackageName: version,
		},
		DevDependencies: map[string]string{
			"@types/jest": "^29.0.0",
			"@types/node": "^20.0.0",
			"jest":        "^29.0.0",
			"ts-node":     "^10.9.0",
			"typescript":  "^5.0.0",
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode package.json: %w", err)
	}
	return append(data, '\n'), nil
}

func renderCargo(lang config.Language, version string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[package]\nname = \"sdkmatrix-%s-%s\"\nversion = \"%s\"\nedition = \"2021\"\n\n", lang.Name, version, version)
	fmt.Fprintf(&b, "[dependencies]\n%s\n", PackageSpec(lang, version))
	b.WriteString(`tokio = { version = "1.0", features = ["full"] }
serde = { version = "1.0", features = ["derive"] }
serde_json = "1.0"

[dev-dependencies]
tokio-test = "0.4"
`)
	return b.Bytes()
}
