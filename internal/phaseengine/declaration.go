// internal/phaseengine/declaration.go
// Declaration is the APPLY-phase facade: the only legal operations are the
// dependency-declaration quartet from spec §6. It is handed to each
// transformer's Apply hook in turn, single-threaded, gate closed.
package phaseengine

import "sync"

// Declaration records round/write dependency edges for one transformer
// invocation. Edges accumulate into the owning Coordinator's shared maps.
type Declaration struct {
	state *PhaseState
	id    string
	edges *edgeStore
}

type edgeStore struct {
	mu               sync.Mutex
	roundDependents  map[string][]string
	writeDependents  map[string][]string
}

func newEdgeStore() *edgeStore {
	return &edgeStore{
		roundDependents: make(map[string][]string),
		writeDependents: make(map[string][]string),
	}
}

func (e *edgeStore) roundDependentsSnapshot() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotEdges(e.roundDependents)
}

func (e *edgeStore) writeDependentsSnapshot() map[string][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotEdges(e.writeDependents)
}

func snapshotEdges(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// AddRoundDependency records that d's transformer must run in a round after
// parentID.
func (d *Declaration) AddRoundDependency(parentID string) error {
	if err := d.state.require(PhaseApply, "addRoundDependency"); err != nil {
		return err
	}
	d.edges.mu.Lock()
	defer d.edges.mu.Unlock()
	d.edges.roundDependents[parentID] = append(d.edges.roundDependents[parentID], d.id)
	return nil
}

// AddRoundDependent records that childID must run in a round after d's
// transformer.
func (d *Declaration) AddRoundDependent(childID string) error {
	if err := d.state.require(PhaseApply, "addRoundDependent"); err != nil {
		return err
	}
	d.edges.mu.Lock()
	defer d.edges.mu.Unlock()
	d.edges.roundDependents[d.id] = append(d.edges.roundDependents[d.id], childID)
	return nil
}

// AddWriteDependency records that, within any class both touch, d's
// transformer's writes must apply after parentID's.
func (d *Declaration) AddWriteDependency(parentID string) error {
	if err := d.state.require(PhaseApply, "addWriteDependency"); err != nil {
		return err
	}
	d.edges.mu.Lock()
	defer d.edges.mu.Unlock()
	d.edges.writeDependents[parentID] = append(d.edges.writeDependents[parentID], d.id)
	return nil
}

// AddWriteDependent records that childID's writes must apply after d's
// transformer's, within any class both touch.
func (d *Declaration) AddWriteDependent(childID string) error {
	if err := d.state.require(PhaseApply, "addWriteDependent"); err != nil {
		return err
	}
	d.edges.mu.Lock()
	defer d.edges.mu.Unlock()
	d.edges.writeDependents[d.id] = append(d.edges.writeDependents[d.id], childID)
	return nil
}
