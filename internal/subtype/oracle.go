// internal/subtype/oracle.go
// Package subtype implements the subtype queries used for bytecode frame
// computation: getCommonSuperClass, backed by a ClassInfo cache, and
// isDerivedFrom. Classes already touched by a write are served from their
// live tree; everything else is resolved by a cheap header-only parse,
// falling back to the Platform collaborator (with retries, see
// platform_retry.go) for classes never registered with the processor.
package subtype

import (
	"context"
	"errors"
	"sync"

	"github.com/nodeforge/classforge/internal/classprovider"
	"github.com/nodeforge/classforge/internal/rw"
	"github.com/nodeforge/classforge/internal/tree"
)

// RootType is returned whenever the common-ancestor search bottoms out.
const RootType = "java/lang/Object"

// ClassInfo is the cached pair the oracle needs per class: its direct
// superclass and whether it is an interface.
type ClassInfo struct {
	Super       string
	IsInterface bool
}

// Oracle answers subtype queries, backed by classInfoCache.
type Oracle struct {
	registry     *classprovider.Registry
	headerReader rw.HeaderReader
	platform     rw.Platform

	mu    sync.Mutex
	cache map[string]ClassInfo
}

// New builds an Oracle. platform may be nil if every class consulted is
// guaranteed to be registered with registry.
func New(registry *classprovider.Registry, headerReader rw.HeaderReader, platform rw.Platform) *Oracle {
	return &Oracle{registry: registry, headerReader: headerReader, platform: platform, cache: make(map[string]ClassInfo)}
}

// Invalidate drops cached ClassInfo for a set of names, called after a
// round's writes (see spec §8 property 7: written classes must not remain
// in classInfoCache).
func (o *Oracle) Invalidate(names []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, n := range names {
		delete(o.cache, n)
	}
}

func (o *Oracle) info(ctx context.Context, internalName string) (ClassInfo, error) {
	o.mu.Lock()
	if ci, ok := o.cache[internalName]; ok {
		o.mu.Unlock()
		return ci, nil
	}
	o.mu.Unlock()

	ci, err := o.resolveInfo(ctx, internalName)
	if err != nil {
		return ClassInfo{}, err
	}

	o.mu.Lock()
	o.cache[internalName] = ci
	o.mu.Unlock()
	return ci, nil
}

func (o *Oracle) resolveInfo(ctx context.Context, internalName string) (ClassInfo, error) {
	if p, ok := o.registry.Get(internalName); ok {
		if p.IsModified() {
			class, err := p.Get(ctx)
			if err != nil {
				return ClassInfo{}, err
			}
			return classInfoFromTree(class), nil
		}
		bc, err := p.Bytecode(ctx)
		if err != nil {
			return ClassInfo{}, err
		}
		return o.readHeader(ctx, internalName, bc)
	}

	if o.platform == nil {
		return ClassInfo{}, &TypeNotPresent{InternalName: internalName}
	}
	bc, err := fetchWithRetry(ctx, o.platform, internalName)
	if err != nil {
		return ClassInfo{}, &TypeNotPresent{InternalName: internalName, Cause: err}
	}
	return o.readHeader(ctx, internalName, bc)
}

func (o *Oracle) readHeader(ctx context.Context, internalName string, bc []byte) (ClassInfo, error) {
	if o.headerReader == nil {
		return ClassInfo{}, errors.New("subtype: no header reader configured to parse " + internalName)
	}
	super, isInterface, err := o.headerReader.ReadHeader(ctx, internalName, bc)
	if err != nil {
		return ClassInfo{}, err
	}
	return ClassInfo{Super: super, IsInterface: isInterface}, nil
}

func classInfoFromTree(class *tree.ClassNode) ClassInfo {
	return ClassInfo{Super: class.Super.Get(), IsInterface: class.IsInterface()}
}

// TypeNotPresent reports that a platform lookup for a subtype query failed
// (spec §7).
type TypeNotPresent struct {
	InternalName string
	Cause        error
}

func (e *TypeNotPresent) Error() string {
	msg := "subtype: type not present: " + e.InternalName
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TypeNotPresent) Unwrap() error { return e.Cause }
