package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

// Registry is the name-keyed tool catalog. It is built once at startup and
// passed to whoever needs lookups or schema export.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	skipped map[string]error
}

func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		skipped: make(map[string]error),
	}
}

// Register adds t. A second tool with the same name is a configuration error.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Info() == nil {
		return fmt.Errorf("%w: tool descriptor is nil", contractx.ErrValidation)
	}
	name := strings.TrimSpace(t.Info().Name)
	if name == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("%w: %s", contractx.ErrDuplicateTool, name)
	}
	r.tools[name] = t
	return nil
}

func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		known := strings.Join(r.Names(), ", ")
		if known == "" {
			known = "none"
		}
		return nil, fmt.Errorf("%w: %q, registered: [%s]", contractx.ErrToolNotFound, name, known)
	}
	return t, nil
}

// All returns a copy of the name to tool mapping.
func (r *Registry) All() map[string]Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Tool, len(r.tools))
	for k, v := range r.tools {
		out[k] = v
	}
	return out
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Infos exports every tool schema, sorted by name.
func (r *Registry) Infos() []*schema.ToolInfo {
	all := r.All()
	infos := make([]*schema.ToolInfo, 0, len(all))
	for _, name := range r.Names() {
		if t, ok := all[name]; ok {
			infos = append(infos, t.Info())
		}
	}
	return infos
}

// Unavailable reports catalog entries that failed to build.
func (r *Registry) Unavailable() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.skipped))
	for name, err := range r.skipped {
		out[name] = err.Error()
	}
	return out
}

func (r *Registry) markSkipped(name string, err error) {
	r.mu.Lock()
	r.skipped[name] = err
	r.mu.Unlock()
}
