// Package presets loads named request descriptors from a YAML/JSON file.
package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samvad-hq/apiprobe/internal/domain"
	"gopkg.in/yaml.v3"
)

// Preset is a saved request the harness can replay by id.
type Preset struct {
	ID     string            `json:"id" yaml:"id"`
	Name   string            `json:"name" yaml:"name"`
	Method string            `json:"method" yaml:"method"`
	Path   string            `json:"path" yaml:"path"`
	Body   any               `json:"body,omitempty" yaml:"body,omitempty"`
	Query  map[string]string `json:"query,omitempty" yaml:"query,omitempty"`
}

// Descriptor converts the preset into a validated request descriptor.
func (p Preset) Descriptor() (domain.RequestDescriptor, error) {
	method, err := domain.ParseMethod(p.Method)
	if err != nil {
		return domain.RequestDescriptor{}, err
	}
	return domain.NewDescriptor(method, p.Path, p.Body, p.Query)
}

// Label is the menu text for the preset.
func (p Preset) Label() string {
	return fmt.Sprintf("%s (%s %s)", p.Name, strings.ToUpper(p.Method), p.Path)
}

type file struct {
	Requests []Preset `json:"requests" yaml:"requests"`
}

// Registry holds the loaded presets in file order.
type Registry struct {
	mu    sync.RWMutex
	items []Preset
	idx   map[string]Preset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{idx: map[string]Preset{}}
}

// Load reads presets from path. A missing file yields an empty registry.
func Load(path string) (*Registry, error) {
	reg := NewRegistry()
	if strings.TrimSpace(path) == "" {
		return reg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return reg, nil
		}
		return nil, fmt.Errorf("open presets file: %w", err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read presets file: %w", err)
	}

	parsed, err := parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if err := reg.Set(parsed.Requests); err != nil {
		return nil, err
	}
	return reg, nil
}

// Set replaces the registry contents after validating every entry.
func (r *Registry) Set(items []Preset) error {
	out := make([]Preset, 0, len(items))
	idx := make(map[string]Preset, len(items))
	for i := range items {
		p := sanitize(items[i])
		if err := validate(p); err != nil {
			return fmt.Errorf("preset[%d]: %w", i, err)
		}
		if _, exists := idx[p.ID]; exists {
			return fmt.Errorf("duplicate preset id %q", p.ID)
		}
		out = append(out, p)
		idx[p.ID] = p
	}

	r.mu.Lock()
	r.items = out
	r.idx = idx
	r.mu.Unlock()
	return nil
}

// All returns a copy of the presets in file order.
func (r *Registry) All() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.items) == 0 {
		return nil
	}
	out := make([]Preset, len(r.items))
	copy(out, r.items)
	return out
}

// IDs returns the preset ids sorted alphabetically.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.idx))
	for id := range r.idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByID returns the preset for id, if loaded.
func (r *Registry) ByID(id string) (Preset, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Preset{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.idx[id]
	return p, ok
}

// Len reports how many presets are loaded.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func parse(data []byte, ext string) (file, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var f file
		if err := d.fn(data, &f); err != nil {
			lastErr = fmt.Errorf("decode %s presets: %w", d.name, err)
			continue
		}
		return f, nil
	}
	if lastErr != nil {
		return file{}, lastErr
	}
	return file{}, errors.New("presets file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func sanitize(p Preset) Preset {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Method = strings.ToUpper(strings.TrimSpace(p.Method))
	p.Path = strings.TrimSpace(p.Path)
	if p.Name == "" {
		p.Name = p.ID
	}
	if len(p.Query) == 0 {
		p.Query = nil
	}
	return p
}

func validate(p Preset) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if _, err := p.Descriptor(); err != nil {
		return fmt.Errorf("preset %q: %w", p.ID, err)
	}
	return nil
}
