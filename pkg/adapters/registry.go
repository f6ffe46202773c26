package adapters

import (
	"fmt"
	"sync"

	"scanhub/pkg/findings"
)

// Registry holds the active adapter per scan kind. Adapters are swapped
// atomically when the tool definition file is reloaded.
type Registry struct {
	mu       sync.RWMutex
	adapters map[findings.ScanKind]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[findings.ScanKind]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Kind()] = a
}

func (r *Registry) Get(kind findings.ScanKind) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[kind]
	return a, ok
}

// Kinds lists the scan kinds with a registered adapter.
func (r *Registry) Kinds() []findings.ScanKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]findings.ScanKind, 0, len(r.adapters))
	for k := range r.adapters {
		kinds = append(kinds, k)
	}
	return kinds
}

// replaceAll swaps in a full adapter set built from a reloaded definition
// file.
func (r *Registry) replaceAll(adapters map[findings.ScanKind]Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = adapters
}

// buildAdapter constructs the adapter matching a tool definition by name.
func buildAdapter(cfg ToolConfig) (Adapter, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("tool command not set for %s", cfg.Name)
	}
	switch cfg.Name {
	case string(findings.KindPortScan):
		return NewNmapAdapter(cfg), nil
	case string(findings.KindWebVuln):
		return NewNucleiAdapter(cfg), nil
	case string(findings.KindMisconfig):
		return NewNiktoAdapter(cfg), nil
	}
	return nil, fmt.Errorf("unknown tool %q", cfg.Name)
}
