// internal/classprovider/registry.go
// Registry is the "allClasses" map from the concurrency model: populated
// during the input stage (addJar/addClass), read-only once processing
// starts. It also tracks per-artifact checksums through a pluggable
// cache.Store so isUpToDate/addJar's checksum comparison don't need their
// own bookkeeping.
package classprovider

import (
	"sync"

	"github.com/nodeforge/classforge/internal/classprovider/cache"
)

// Registry owns every class's Provider plus the up-to-date checksum cache.
type Registry struct {
	store cache.Store

	mu        sync.RWMutex
	providers map[string]*Provider
	upToDate  bool
}

// NewRegistry builds an empty Registry backed by store. A nil store falls
// back to an in-memory one so callers never have to special-case it.
func NewRegistry(store cache.Store) *Registry {
	if store == nil {
		store = cache.NewInMem()
	}
	return &Registry{store: store, providers: make(map[string]*Provider), upToDate: true}
}

// Put registers or replaces the provider for internalName.
func (r *Registry) Put(internalName string, p *Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[internalName] = p
}

// Get returns the provider for internalName, if registered.
func (r *Registry) Get(internalName string) (*Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[internalName]
	return p, ok
}

// Names returns every registered internal class name, in no particular
// order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}

// InvalidateAll invalidates every registered provider's cache, used by the
// Input API's invalidateCache.
func (r *Registry) InvalidateAll() {
	r.mu.RLock()
	providers := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	for _, p := range providers {
		p.Invalidate()
	}
	r.markStale()
}

// InvalidateOne invalidates a single provider's cache, used by addClass
// (which unconditionally invalidates its own slot only) and, for each of its
// entries, by a changed-checksum addJar.
func (r *Registry) InvalidateOne(internalName string) {
	r.mu.RLock()
	p, ok := r.providers[internalName]
	r.mu.RUnlock()
	if ok {
		p.Invalidate()
	}
	r.markStale()
}

// CheckedArtifact compares checksum against the previously recorded value
// for key (addJar passes the jar path), updates the
// stored checksum, and reports whether it changed (or is new).
func (r *Registry) CheckedArtifact(key, checksum string) (changed bool, err error) {
	prev, ok, err := r.store.Get(key)
	if err != nil {
		return false, err
	}
	if err := r.store.Set(key, checksum); err != nil {
		return false, err
	}
	return !ok || prev != checksum, nil
}

// MarkProcessed clears the stale flag once process() completes.
func (r *Registry) MarkProcessed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upToDate = true
}

func (r *Registry) markStale() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upToDate = false
}

// IsUpToDate reports whether process() has nothing left to do.
func (r *Registry) IsUpToDate() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.upToDate
}
