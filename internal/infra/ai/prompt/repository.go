package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
)

// KeySystem is the system message sent ahead of every analysis prompt.
const KeySystem = "system"

//go:embed templates/*.yaml
var defaults embed.FS

// Template satu entry di file YAML
type Template struct {
	Template  string            `yaml:"template"`
	Variables map[string]string `yaml:"variables"`
}

// Repository holds named templates loaded from YAML files. It is read-only
// after construction and safe for concurrent use.
type Repository struct {
	templates map[string]Template
}

// NewDefault loads the templates compiled into the binary.
func NewDefault() (*Repository, error) {
	sub, err := fs.Sub(defaults, "templates")
	if err != nil {
		return nil, err
	}
	return loadFS(sub, nil)
}

// Load reads every *.yaml file in dir on top of the built-in templates. Later
// files override earlier keys. An empty dir means built-ins only.
func Load(dir string, logger *zap.Logger) (*Repository, error) {
	repo, err := NewDefault()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dir) == "" {
		return repo, nil
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("prompt dir: %w", err)
	}
	overlay, err := loadFS(os.DirFS(dir), logging.OrNop(logger).With(zap.String("dir", dir)))
	if err != nil {
		return nil, err
	}
	for k, t := range overlay.templates {
		repo.templates[k] = t
	}
	return repo, nil
}

func loadFS(fsys fs.FS, logger *zap.Logger) (*Repository, error) {
	logger = logging.OrNop(logger)
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	repo := &Repository{templates: map[string]Template{}}
	for _, name := range files {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var entries map[string]Template
		if err := yaml.Unmarshal(b, &entries); err != nil {
			return nil, fmt.Errorf("parse %s: %w", filepath.Base(name), err)
		}
		if len(entries) == 0 {
			logger.Warn("prompt file has no templates", zap.String("file", name))
			continue
		}
		for k, t := range entries {
			repo.templates[k] = t
		}
		logger.Debug("prompt templates loaded", zap.String("file", name), zap.Int("count", len(entries)))
	}
	return repo, nil
}

// Has reports whether key is registered.
func (r *Repository) Has(key string) bool {
	_, ok := r.templates[key]
	return ok
}

// Keys lists the registered template keys in sorted order.
func (r *Repository) Keys() []string {
	out := make([]string, 0, len(r.templates))
	for k := range r.templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render substitutes vars, layered over the template's own defaults, into the
// template registered as key.
func (r *Repository) Render(key string, vars map[string]string) (string, error) {
	t, ok := r.templates[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrPromptTemplateMissing, key)
	}
	merged := make(map[string]string, len(t.Variables)+len(vars))
	for k, v := range t.Variables {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	out, err := render(t.Template, merged)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrPromptRender, key, err)
	}
	return out, nil
}

// render replaces {name} placeholders. "{{" and "}}" produce literal braces.
func render(tmpl string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := tmpl[i+1 : i+1+end]
			v, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("missing variable %q", name)
			}
			b.WriteString(v)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i++
			}
			b.WriteByte('}')
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
