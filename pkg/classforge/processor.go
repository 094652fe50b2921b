// pkg/classforge/processor.go
// Package classforge is the driver-facing Input API from spec.md §6: the
// single public entry point that glues the tree model, capture system,
// class provider/cache, scheduler and phase engine into the operations a
// caller (the cmd/classforge CLI, or an embedding build tool) actually
// invokes. It owns allClasses (via classprovider.Registry), the transformer
// registry, the subtype oracle and the phase engine Coordinator, and is the
// only package that wires all of them together — mirroring the teacher's
// internal/gateway.Server, which is the single type that wires listener,
// retention store and alert engine for its own domain.
package classforge

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/nodeforge/classforge/internal/classprovider"
	"github.com/nodeforge/classforge/internal/classprovider/cache"
	"github.com/nodeforge/classforge/internal/notify"
	"github.com/nodeforge/classforge/internal/phaseengine"
	"github.com/nodeforge/classforge/internal/rw"
	"github.com/nodeforge/classforge/internal/scheduler"
	"github.com/nodeforge/classforge/internal/selector"
	"github.com/nodeforge/classforge/internal/subtype"
	"github.com/nodeforge/classforge/internal/transformer"
	"github.com/nodeforge/classforge/internal/tree"
)

// Processor is the top-level object an embedder constructs once per
// compilation unit. It is not safe for concurrent Input API calls against
// itself (the input stage in spec.md §4.3/§6 is expected to run
// single-threaded, ahead of process()); process() itself parallelizes
// internally per §5.
type Processor struct {
	reader       rw.Reader
	headerReader rw.HeaderReader
	platform     rw.Platform

	registry     *classprovider.Registry
	transformers *transformer.Registry
	oracle       *subtype.Oracle
	coordinator  *phaseengine.Coordinator
	notifier     notify.Sink

	mu      sync.Mutex
	anchors []string
	config  map[string]string
	closed  bool
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithCacheStore overrides the default in-memory checksum cache (e.g. with
// cache.NewRedis, so several processor instances share one build cache).
func WithCacheStore(store cache.Store) Option {
	return func(p *Processor) { p.registry = classprovider.NewRegistry(store) }
}

// WithHeaderReader supplies a cheaper header-only parse path for the
// subtype oracle (see rw.HeaderReader). If omitted, the oracle uses reader's
// own ReadHeader whenever reader also implements rw.HeaderReader; otherwise
// header lookups fail with an error.
func WithHeaderReader(hr rw.HeaderReader) Option {
	return func(p *Processor) { p.headerReader = hr }
}

// WithNotifier registers a lifecycle-event sink (SPEC_FULL.md supplement 4).
func WithNotifier(sink notify.Sink) Option {
	return func(p *Processor) { p.notifier = sink }
}

// New constructs a Processor. reader parses bytecode into tree form;
// platform resolves classfile bytes for types never registered with this
// processor (may be nil if every type the subtype oracle ever sees is
// registered via addJar/addClass).
func New(reader rw.Reader, platform rw.Platform, opts ...Option) *Processor {
	p := &Processor{
		reader:       reader,
		platform:     platform,
		registry:     classprovider.NewRegistry(nil),
		transformers: transformer.NewRegistry(),
		anchors:      append([]string(nil), scheduler.DefaultAnchors...),
		config:       make(map[string]string),
	}
	if hr, ok := reader.(rw.HeaderReader); ok {
		p.headerReader = hr
	}
	// Options run before the registry-dependent pieces (coordinator, oracle)
	// are built, so WithCacheStore's registry swap takes effect everywhere.
	for _, opt := range opts {
		opt(p)
	}

	p.coordinator = phaseengine.NewCoordinator(p.registry)
	if p.notifier != nil {
		p.coordinator.SetNotifier(p.notifier)
	}
	p.oracle = subtype.New(p.registry, p.headerReader, p.platform)
	p.coordinator.SetClassInfoInvalidator(p.oracle)
	return p
}

// Oracle exposes the subtype query engine (spec §4.6) to callers that need
// getCommonSuperClass/isDerivedFrom outside a transformer's Read hook (e.g.
// frame computation in a bytecode writer).
func (p *Processor) Oracle() *subtype.Oracle { return p.oracle }

// AddTransformer registers a transformer, in submission order.
func (p *Processor) AddTransformer(t transformer.Transformer) {
	p.transformers.Add(t)
}

// AddJar streams the zip at path, records each .class entry as a provider,
// computes the whole archive's SHA-1 and compares it against oldChecksum.
// If it differs (or oldChecksum was never recorded), every entry's cache
// slot is invalidated and newChecksum, base64-encoded, is returned for the
// caller to persist for the next run.
func (p *Processor) AddJar(path string, oldChecksum string) (string, error) {
	raw, err := readFileBytes(path)
	if err != nil {
		return "", &IOError{Path: path, Cause: err}
	}

	sum := sha1.Sum(raw)
	checksum := base64.StdEncoding.EncodeToString(sum[:])

	// The registry's own artifact store tracks this path's last-seen
	// checksum for isUpToDate() across repeated AddJar calls within one
	// process lifetime; oldChecksum is the caller's externally-persisted
	// value, carrying that knowledge across process restarts (§6: the
	// processor itself holds no state across runs). Either one observing
	// a change is enough to reprocess the jar.
	storeChanged, err := p.registry.CheckedArtifact(path, checksum)
	if err != nil {
		return "", err
	}
	if !storeChanged && oldChecksum == checksum {
		return checksum, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", &IOError{Path: path, Cause: err}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".class") {
			continue
		}
		internalName := strings.TrimSuffix(f.Name, ".class")
		bc, err := readZipEntry(f)
		if err != nil {
			return "", &IOError{Path: path + "!" + f.Name, Cause: err}
		}
		name := internalName
		provider := classprovider.New(name, func(ctx context.Context) ([]byte, error) {
			return bc, nil
		}, p.reader)
		p.registry.Put(name, provider)
		p.registry.InvalidateOne(name)
	}
	return checksum, nil
}

// AddClass registers a single class's raw bytecode, unconditionally
// invalidating its cache slot (spec §6).
func (p *Processor) AddClass(name string, bytecode []byte) {
	bc := append([]byte(nil), bytecode...)
	provider := classprovider.New(name, func(ctx context.Context) ([]byte, error) {
		return bc, nil
	}, p.reader)
	p.registry.Put(name, provider)
	p.registry.InvalidateOne(name)
}

// AddConfig records a plain string configuration value. The key "selector"
// is additionally special-cased: its value is compiled with
// internal/selector.CompileForClass and installed as the global class
// filter every transformer's withClasses/withAllClasses call is gated by.
// A compile error is returned so the CLI can surface a malformed expression
// immediately rather than at the first READ.
func (p *Processor) AddConfig(key, value string) error {
	p.mu.Lock()
	p.config[key] = value
	p.mu.Unlock()
	if key == "selector" {
		return p.SetSelector(value)
	}
	return nil
}

// SetSelector compiles expr with internal/selector and installs it as the
// global class filter (see AddConfig's "selector" key). Passing "" clears
// any previously installed filter.
func (p *Processor) SetSelector(expr string) error {
	if expr == "" {
		p.coordinator.SetClassFilter(nil)
		return nil
	}
	pred, err := selector.CompileForClass(expr)
	if err != nil {
		return err
	}
	p.coordinator.SetClassFilter(pred)
	return nil
}

// GetConfigValue returns a previously recorded configuration value.
func (p *Processor) GetConfigValue(key string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.config[key]
	return v, ok
}

// SetAnchors replaces the anchor sequence used by the round scheduler. A
// nil list resets to scheduler.DefaultAnchors.
func (p *Processor) SetAnchors(anchors []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if anchors == nil {
		p.anchors = append([]string(nil), scheduler.DefaultAnchors...)
		return
	}
	p.anchors = append([]string(nil), anchors...)
}

// InvalidateCache forces every registered class to reparse on next access.
func (p *Processor) InvalidateCache() { p.registry.InvalidateAll() }

// IsUpToDate reports whether process() has nothing left to do.
func (p *Processor) IsUpToDate() bool { return p.registry.IsUpToDate() }

// Close releases any resources the Processor holds. classforge keeps no
// persistent state (spec §6), so Close only guards against reuse after
// shutdown.
func (p *Processor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// ErrClosed is returned by Process once Close has been called.
var ErrClosed = errors.New("classforge: processor is closed")

// Process runs the full phase engine (APPLY -> (READ -> fixpoint -> WRITE)*
// per round) if the processor is not already up to date; otherwise it is a
// no-op, matching spec §8 property 6.
func (p *Processor) Process(ctx context.Context) error {
	p.mu.Lock()
	closed := p.closed
	anchors := append([]string(nil), p.anchors...)
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if p.registry.IsUpToDate() {
		return nil
	}

	hooks := make([]phaseengine.TransformerLike, 0)
	for _, t := range p.transformers.All() {
		hooks = append(hooks, t)
	}
	if err := p.coordinator.ProcessAll(hooks, anchors); err != nil {
		return err
	}
	p.registry.MarkProcessed()
	return nil
}

// GetModifiedClassNames returns every class name written so far, across
// every Process call.
func (p *Processor) GetModifiedClassNames() []string {
	return p.coordinator.ModifiedClasses()
}

// FindClassImmediately resolves name's current tree synchronously, outside
// any phase. Useful after Process returns, to inspect or hand off to a
// bytecode writer.
func (p *Processor) FindClassImmediately(ctx context.Context, name string) (*tree.ClassNode, error) {
	provider, ok := p.registry.Get(name)
	if !ok {
		return nil, &phaseengine.UnknownClass{ClassName: name}
	}
	return provider.Get(ctx)
}

// IOError wraps a failure reading an input artifact (a jar path or zip
// entry), spec §7.
type IOError struct {
	Path  string
	Cause error
}

func (e *IOError) Error() string { return "classforge: " + e.Path + ": " + e.Cause.Error() }
func (e *IOError) Unwrap() error { return e.Cause }

func readFileBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
