package session

import (
	"fmt"
	"sync"

	"geovis/internal/models"
	"geovis/pkg/transfer"
)

// Surface draws descriptors. Implementations must release everything held for
// a kind on Dispose.
type Surface interface {
	Accept(d models.Descriptor, m transfer.Mapping) error
	Recolor(kind models.Kind, m transfer.Mapping) error
	Dispose(kind models.Kind) error
}

// Registry tracks the one active descriptor per visualization kind and keeps
// the surface in step with it.
type Registry struct {
	mu      sync.Mutex
	surface Surface
	active  map[models.Kind]models.Descriptor
}

// NewRegistry creates a registry over surface. A nil surface only records.
func NewRegistry(surface Surface) *Registry {
	return &Registry{surface: surface, active: make(map[models.Kind]models.Descriptor)}
}

// Set disposes any descriptor active for kind, then hands d to the surface.
// d stays registered even if the surface rejects it, so a later Clear still
// reaches the surface.
func (r *Registry) Set(kind models.Kind, d models.Descriptor, m transfer.Mapping) error {
	if d == nil || d.Kind() != kind {
		return fmt.Errorf("registry: descriptor does not match kind %s", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.disposeLocked(kind); err != nil {
		return err
	}
	r.active[kind] = d
	if r.surface == nil {
		return nil
	}
	return r.surface.Accept(d, m)
}

// Clear disposes the descriptor active for kind, if any.
func (r *Registry) Clear(kind models.Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposeLocked(kind)
}

// ClearAll disposes every active descriptor.
func (r *Registry) ClearAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range models.Kinds {
		if err := r.disposeLocked(k); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) disposeLocked(kind models.Kind) error {
	if _, ok := r.active[kind]; !ok {
		return nil
	}
	delete(r.active, kind)
	if r.surface == nil {
		return nil
	}
	return r.surface.Dispose(kind)
}

// Active returns the descriptor registered for kind.
func (r *Registry) Active(kind models.Kind) (models.Descriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.active[kind]
	return d, ok
}

// ActiveKinds lists the kinds with a registered descriptor in display order.
func (r *Registry) ActiveKinds() []models.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Kind
	for _, k := range models.Kinds {
		if _, ok := r.active[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Recolor pushes a fresh mapping for every active descriptor. mapping is
// called once per descriptor to remap onto its scalar range.
func (r *Registry) Recolor(mapping func(models.Descriptor) transfer.Mapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.surface == nil {
		return nil
	}
	for _, k := range models.Kinds {
		d, ok := r.active[k]
		if !ok {
			continue
		}
		if err := r.surface.Recolor(k, mapping(d)); err != nil {
			return err
		}
	}
	return nil
}
