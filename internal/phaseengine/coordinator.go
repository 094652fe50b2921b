// internal/phaseengine/coordinator.go
// Coordinator drives APPLY -> (READ -> class-request fixpoint -> WRITE)*
// per round, sharded by class during READ's fixpoint and during WRITE,
// exactly as spec §4.5/§5 describe. Parallel fan-out uses
// github.com/sourcegraph/conc/pool so the first error in a wave is
// surfaced after the wave drains, matching the propagation policy in §7.
package phaseengine

import (
	"context"
	"sync"
	"time"

	"github.com/nodeforge/classforge/internal/capture"
	"github.com/nodeforge/classforge/internal/classprovider"
	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/internal/metrics"
	"github.com/nodeforge/classforge/internal/scheduler"
	"github.com/nodeforge/classforge/internal/telemetry"
	"github.com/nodeforge/classforge/internal/tree"
	"github.com/sourcegraph/conc/pool"
)

// transformerHook is the minimal shape Coordinator needs from a
// transformer; transformer.Transformer satisfies it structurally, so this
// package never imports internal/transformer (that package imports this
// one, for Declaration/ReadScope).
type transformerHook interface {
	ID() string
	Apply(d *Declaration) error
	Read(rc *ReadScope) error
}

type classInfoInvalidator interface {
	Invalidate(names []string)
}

type lifecycleNotifier interface {
	Notify(event string, detail map[string]string)
}

// Coordinator owns every piece of shared mutable state the concurrency
// model in §5 names: requestedClasses, writes, modifiedClasses,
// roundDependents/writeDependents (via edges).
type Coordinator struct {
	registry *classprovider.Registry
	state    PhaseState
	edges    *edgeStore

	invalidator classInfoInvalidator
	notifier    lifecycleNotifier
	classFilter func(*tree.ClassNode) bool

	mu               sync.Mutex
	requestedClasses map[string][]classCallback
	writes           map[string][]Write
	modifiedClasses  []string
}

// NewCoordinator builds a Coordinator over registry.
func NewCoordinator(registry *classprovider.Registry) *Coordinator {
	return &Coordinator{
		registry:         registry,
		edges:            newEdgeStore(),
		requestedClasses: make(map[string][]classCallback),
		writes:           make(map[string][]Write),
	}
}

// TransformerLike is the exported counterpart of transformerHook. Packages
// outside phaseengine cannot name the unexported interface (and so cannot
// build a []transformerHook literal directly, since slice types are
// invariant even when their element type is satisfied structurally); they
// drive processing through ProcessAll instead, which accepts this exported
// shape and adapts it internally. internal/transformer.Transformer already
// has this exact method set.
type TransformerLike interface {
	ID() string
	Apply(d *Declaration) error
	Read(rc *ReadScope) error
}

// ProcessAll adapts transformers to transformerHook and delegates to
// Process. This is the entry point the driver-facing Input API uses.
func (c *Coordinator) ProcessAll(transformers []TransformerLike, anchors []string) error {
	hooks := make([]transformerHook, len(transformers))
	for i, t := range transformers {
		hooks[i] = t
	}
	return c.Process(hooks, anchors)
}

// SetClassInfoInvalidator wires the subtype oracle's cache so written
// classes drop out of it, per spec §8 property 7.
func (c *Coordinator) SetClassInfoInvalidator(inv classInfoInvalidator) { c.invalidator = inv }

// SetNotifier wires an optional lifecycle-event sink (SPEC_FULL supplement 4).
func (c *Coordinator) SetNotifier(n lifecycleNotifier) { c.notifier = n }

// SetClassFilter installs a global predicate every WithClasses/WithAllClasses
// call ANDs against, on top of whatever predicate the caller supplies. This
// is how the driver-facing Input API's addConfig("selector", expr) (compiled
// by internal/selector) reaches the transformer-facing withClasses(predicate)
// without threading a predicate through every transformer by hand. A nil
// filter (the default) matches everything.
func (c *Coordinator) SetClassFilter(pred func(*tree.ClassNode) bool) { c.classFilter = pred }

// ModifiedClasses returns every class name written so far, across all
// Process calls.
func (c *Coordinator) ModifiedClasses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.modifiedClasses))
	copy(out, c.modifiedClasses)
	return out
}

func (c *Coordinator) notify(event string, detail map[string]string) {
	if c.notifier != nil {
		c.notifier.Notify(event, detail)
	}
}

func (c *Coordinator) enqueueRequest(name string, cb classCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestedClasses[name] = append(c.requestedClasses[name], cb)
}

func (c *Coordinator) enqueueWrite(className string, w Write) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes[className] = append(c.writes[className], w)
}

// Process runs APPLY once, then every round computed from the registered
// transformers, round dependency declarations and anchors, in order.
func (c *Coordinator) Process(transformers []transformerHook, anchors []string) error {
	if err := c.runApply(transformers); err != nil {
		return err
	}

	byID := make(map[string]transformerHook, len(transformers))
	ids := make([]string, 0, len(transformers))
	for _, t := range transformers {
		byID[t.ID()] = t
		ids = append(ids, t.ID())
	}

	rounds, err := scheduler.Round(ids, c.edges.roundDependentsSnapshot(), anchors)
	if err != nil {
		c.notify("cycle_detected", map[string]string{"error": err.Error()})
		return err
	}

	for roundIdx, round := range rounds {
		hooks := make([]transformerHook, 0, len(round))
		for _, id := range round {
			if h, ok := byID[id]; ok {
				hooks = append(hooks, h)
			}
		}
		if len(hooks) == 0 {
			continue
		}
		if err := c.runRound(roundIdx, hooks); err != nil {
			return err
		}
	}

	c.notify("process_completed", nil)
	return nil
}

func (c *Coordinator) runApply(transformers []transformerHook) error {
	_, span := telemetry.StartPhase(context.Background(), "apply")
	c.state.set(PhaseApply)
	defer c.state.set(PhaseNone)
	for _, t := range transformers {
		d := &Declaration{state: &c.state, id: t.ID(), edges: c.edges}
		if err := t.Apply(d); err != nil {
			telemetry.End(span, err)
			return err
		}
	}
	telemetry.End(span, nil)
	return nil
}

func (c *Coordinator) runRound(roundIdx int, hooks []transformerHook) error {
	ids := make([]string, len(hooks))
	for i, h := range hooks {
		ids[i] = h.ID()
	}
	ctx, roundSpan := telemetry.StartRound(context.Background(), roundIdx, ids)

	c.notify("round_started", nil)
	c.state.set(PhaseRead)
	logging.Sugar().Infow("round started", "transformers", len(hooks))

	start := time.Now()
	metrics.RoundsTotal.Inc()
	metrics.ActiveRoundTransformers.Set(float64(len(hooks)))
	defer func() {
		metrics.ActiveRoundTransformers.Set(0)
		metrics.RoundDuration.Observe(time.Since(start).Seconds())
	}()

	_, readSpan := telemetry.StartPhase(ctx, "read")
	p := pool.New().WithErrors()
	for _, h := range hooks {
		h := h
		p.Go(func() error {
			rc := &ReadScope{c: c, transformerID: h.ID()}
			return h.Read(rc)
		})
	}
	if err := p.Wait(); err != nil {
		telemetry.End(readSpan, err)
		telemetry.End(roundSpan, err)
		c.state.set(PhaseNone)
		return err
	}
	telemetry.End(readSpan, nil)

	if err := c.drainFixpoint(); err != nil {
		telemetry.End(roundSpan, err)
		c.state.set(PhaseNone)
		return err
	}

	if err := c.runWrite(); err != nil {
		telemetry.End(roundSpan, err)
		c.state.set(PhaseNone)
		return err
	}

	c.state.set(PhaseNone)
	c.notify("round_completed", nil)
	logging.Sugar().Infow("round completed")
	telemetry.End(roundSpan, nil)
	return nil
}

// drainFixpoint services requestedClasses in waves until a wave produces no
// new requests, per §4.5.
func (c *Coordinator) drainFixpoint() error {
	for {
		c.mu.Lock()
		pending := c.requestedClasses
		c.requestedClasses = make(map[string][]classCallback)
		c.mu.Unlock()

		if len(pending) == 0 {
			return nil
		}

		p := pool.New().WithErrors()
		for name, cbs := range pending {
			name, cbs := name, cbs
			p.Go(func() error {
				provider, ok := c.registry.Get(name)
				if !ok {
					return &UnknownClass{ClassName: name}
				}
				class, err := provider.Get(context.Background())
				if err != nil {
					return err
				}
				for _, cb := range cbs {
					if err := cb(class); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return err
		}
	}
}

// runWrite materializes, resolves and applies every pending write, sharded
// by class, per §4.5 WRITE and §5's per-class single-worker guarantee.
func (c *Coordinator) runWrite() error {
	_, span := telemetry.StartPhase(context.Background(), "write")
	c.state.set(PhaseWrite)

	c.mu.Lock()
	writes := c.writes
	c.writes = make(map[string][]Write)
	c.mu.Unlock()

	if len(writes) == 0 {
		telemetry.End(span, nil)
		return nil
	}

	writeDeps := c.edges.writeDependentsSnapshot()

	p := pool.New().WithErrors()
	var mu sync.Mutex
	var written []string

	for className, ws := range writes {
		className, ws := className, ws
		p.Go(func() error {
			provider, ok := c.registry.Get(className)
			if !ok {
				return &UnknownClass{ClassName: className}
			}

			class, err := provider.Get(context.Background())
			if err != nil {
				return err
			}
			provider.MarkModified(class)

			gate := class.Gate()
			wasOpen := gate.IsOpen()
			gate.Open()
			defer func() {
				if !wasOpen {
					gate.Close()
				}
			}()

			logOverlaps(className, ws)
			ordered := orderWrites(ws, writeDeps)
			resolver := singleClassResolver{className: className, class: class}
			for _, w := range ordered {
				if w.ClassName() != className {
					return &CrossClassWrite{Target: w.ClassName(), Current: className}
				}
				if err := w.Apply(resolver); err != nil {
					return err
				}
			}

			mu.Lock()
			written = append(written, className)
			mu.Unlock()
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		telemetry.End(span, err)
		return err
	}

	c.mu.Lock()
	c.modifiedClasses = append(c.modifiedClasses, written...)
	c.mu.Unlock()
	metrics.ClassesWrittenTotal.Add(float64(len(written)))

	if c.invalidator != nil {
		c.invalidator.Invalidate(written)
	}
	telemetry.End(span, nil)
	return nil
}

// singleClassResolver implements capture.ClassResolver, refusing any name
// other than the class currently being written (the "currentWritingClass"
// binding from §5, realized as a value scoped to one goroutine's write
// shard rather than an actual thread-local).
type singleClassResolver struct {
	className string
	class     *tree.ClassNode
}

func (r singleClassResolver) ResolveClass(name string) (*tree.ClassNode, error) {
	if name != r.className {
		return nil, &CrossClassWrite{Target: name, Current: r.className}
	}
	return r.class, nil
}

var _ capture.ClassResolver = singleClassResolver{}
