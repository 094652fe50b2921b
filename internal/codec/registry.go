// internal/codec/registry.go
// Package codec is the dynamic-loading boundary the CLI driver uses to
// obtain a concrete rw.Reader/rw.Writer without ever implementing bytecode
// parsing itself, matching spec.md §1/§6's insistence that the reader and
// writer are narrow-contract external collaborators. Adapted from the
// teacher's internal/plugins/registry.go: the same global, init()-time
// Register() posture and the same plugin.Open dynamic-loading
// path, retargeted from sampler/encoder/exporter plugins to codec plugins.
//
// This is a distinct concern from internal/transformer.Registry, which
// intentionally does NOT load transformers dynamically (see its doc
// comment and DESIGN.md) — transformers are Go values an embedder links in
// directly. A codec plugin, by contrast, is exactly the kind of
// swap-the-classfile-format extension point the teacher's plugin system
// was built for.
package codec

import (
	"fmt"
	"plugin"
	"sync"

	"github.com/nodeforge/classforge/internal/rw"
)

// Codec bundles the Reader/Writer/Platform a plugin contributes. Writer and
// Platform are optional; a codec plugin that only parses (no serialization,
// no remote lookups) may leave them nil.
type Codec struct {
	Name     string
	Reader   rw.Reader
	Writer   rw.Writer
	Platform rw.Platform
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Codec)
)

// Register adds c to the global registry. Called from a codec plugin's
// init(). Duplicate names panic to surface the programmer error immediately,
// matching the teacher's registry.
func Register(c Codec) {
	if c.Name == "" {
		panic("codec: plugin registered with empty name")
	}
	if c.Reader == nil {
		panic("codec: plugin " + c.Name + " registered with nil Reader")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[c.Name]; exists {
		panic("codec: duplicate codec plugin " + c.Name)
	}
	registry[c.Name] = c
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	return c, ok
}

// Names returns every registered codec name.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	return out
}

// LoadShared dynamically loads a Go plugin (.so) built with `go build
// -buildmode=plugin` whose init() calls Register(). name is the codec name
// it is expected to have registered under; LoadShared returns it directly
// so callers do not need a second Lookup call.
func LoadShared(path, name string) (Codec, error) {
	if _, err := plugin.Open(path); err != nil {
		return Codec{}, fmt.Errorf("codec: opening plugin %s: %w", path, err)
	}
	c, ok := Lookup(name)
	if !ok {
		return Codec{}, fmt.Errorf("codec: plugin %s loaded but did not register codec %q", path, name)
	}
	return c, nil
}
