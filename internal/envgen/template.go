package envgen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/giantswarm/sdkmatrix/internal/config"
	"github.com/giantswarm/sdkmatrix/internal/sentinel"
)

// Template names, relative to the template root and slash separated.
const (
	DockerfileTemplate     = "Dockerfile.template"
	ServiceComposeTemplate = "docker-compose.template.yml"
	JointComposeTemplate   = "client-server-compose.template.yml"
)

// DockerfileTemplateName returns the name of the Dockerfile template for a
// language and role.
func DockerfileTemplateName(lang string, role config.Role) string {
	return path.Join(lang, string(role), DockerfileTemplate)
}

// TemplateSource supplies raw template text by name.
type TemplateSource interface {
	Template(name string) (string, error)
}

// CommandLookup maps a language and role to the command that starts it.
// config.Config satisfies it.
type CommandLookup interface {
	Command(lang string, role config.Role) (string, error)
}

// DirTemplates reads templates from a directory tree.
type DirTemplates struct {
	Root string
}

// Template reads Root/name. A missing file is reported as ErrTemplate.
func (d DirTemplates) Template(name string) (string, error) {
	p := filepath.Join(d.Root, filepath.FromSlash(name))
	data, err := os.ReadFile(p) //nolint:gosec // G304: path built from the configured template root
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("template %s not found: %w", p, sentinel.ErrTemplate)
		}
		return "", fmt.Errorf("read template %s: %w", p, err)
	}
	return string(data), nil
}

// Placeholder names recognized in templates, written as ${NAME}.
const (
	PlaceholderVersion       = "VERSION"
	PlaceholderLanguage      = "LANGUAGE"
	PlaceholderRole          = "ROLE"
	PlaceholderPort          = "PORT"
	PlaceholderCommand       = "COMMAND"
	PlaceholderClientLang    = "CLIENT_LANG"
	PlaceholderClientVer     = "CLIENT_VER"
	PlaceholderClientPort    = "CLIENT_PORT"
	PlaceholderClientCommand = "CLIENT_COMMAND"
	PlaceholderServerLang    = "SERVER_LANG"
	PlaceholderServerVer     = "SERVER_VER"
	PlaceholderServerPort    = "SERVER_PORT"
	PlaceholderServerCommand = "SERVER_COMMAND"
	PlaceholderCategories    = "CATEGORIES"
	PlaceholderTimeout       = "TIMEOUT"
)

var recognized = []string{
	PlaceholderVersion, PlaceholderLanguage, PlaceholderRole, PlaceholderPort, PlaceholderCommand,
	PlaceholderClientLang, PlaceholderClientVer, PlaceholderClientPort, PlaceholderClientCommand,
	PlaceholderServerLang, PlaceholderServerVer, PlaceholderServerPort, PlaceholderServerCommand,
	PlaceholderCategories, PlaceholderTimeout,
}

var placeholderRE = regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]*)\}`)

// values is the substitution context of one artifact. A name present in
// unresolved could not be computed; using it in a template fails the
// artifact with that error.
type values struct {
	set        map[string]string
	unresolved map[string]error
}

func newValues() *values {
	return &values{set: make(map[string]string), unresolved: make(map[string]error)}
}

func (v *values) put(name, value string) {
	v.set[name] = value
}

func (v *values) fail(name string, err error) {
	v.unresolved[name] = err
}

// render substitutes every recognized placeholder in tmpl. Names outside the
// recognized set are left untouched for the container tooling to expand.
// It returns the names that were used but have no value.
func render(tmpl string, v *values) (string, []string, error) {
	var (
		missing []string
		errs    []error
	)
	out := placeholderRE.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[2 : len(m)-1]
		if !slices.Contains(recognized, name) {
			return m
		}
		if val, ok := v.set[name]; ok {
			return val
		}
		if !slices.Contains(missing, name) {
			missing = append(missing, name)
			if err, ok := v.unresolved[name]; ok {
				errs = append(errs, err)
			}
		}
		return m
	})
	return out, missing, errors.Join(errs...)
}
