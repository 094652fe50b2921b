// cmd/classforge/process.go
// Implements the `classforge process` sub-command: the thin glue spec.md
// §1/§6 describes — it loads a Reader/Writer/Platform implementation (via
// a dynamically loaded codec plugin, internal/codec) and drives the Input
// API (addJar, addClass, addConfig, setAnchors, process,
// getModifiedClassNames) exactly as an embedder would, without ever parsing
// bytecode itself.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nodeforge/classforge/internal/classprovider/cache"
	"github.com/nodeforge/classforge/internal/codec"
	"github.com/nodeforge/classforge/internal/config"
	"github.com/nodeforge/classforge/internal/logging"
	"github.com/nodeforge/classforge/internal/metrics"
	"github.com/nodeforge/classforge/internal/notify"
	"github.com/nodeforge/classforge/internal/platform"
	"github.com/nodeforge/classforge/internal/progress"
	"github.com/nodeforge/classforge/internal/rw"
	"github.com/nodeforge/classforge/internal/util"
	"github.com/nodeforge/classforge/pkg/auth"
	"github.com/nodeforge/classforge/pkg/classforge"
)

type processFlags struct {
	codecPlugin string
	codecName   string

	configFile string
	selector   string

	jars      []string
	classes   []string
	configKVs []string
	anchors   []string

	cacheBackend string
	redisAddr    string

	platformKind string
	platformAddr string
	platformAuth string
	insecure     bool

	notifySinks []string
	webhookURL  string
	slackURL    string

	watchAddr     string
	enableMetrics bool

	outDir string
}

func newProcessCmd() *cobra.Command {
	var f processFlags

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run a bytecode transformation pass over the registered inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.codecPlugin, "codec-plugin", "", "Path to a codec plugin .so implementing the Reader/Writer contract (required)")
	flags.StringVar(&f.codecName, "codec", "", "Name the codec plugin registers under (required)")
	flags.StringVar(&f.configFile, "config-file", "", "Processor config file (YAML/TOML/JSON) loaded via internal/config, merged with CLASSFORGE_-prefixed env vars; explicit flags below override it")
	flags.StringVar(&f.selector, "selector", "", `Selector DSL expression (internal/selector), e.g. 'name startsWith "com/example/" && public'; gates every transformer's withClasses/withAllClasses this run. Falls back to the config file's "selector" key`)
	flags.StringArrayVar(&f.jars, "jar", nil, "path[=oldChecksum] of a jar to register as input; repeatable")
	flags.StringArrayVar(&f.classes, "class", nil, "internalName=path of a single class to register; repeatable")
	flags.StringArrayVar(&f.configKVs, "config-value", nil, "key=value processor config pair (addConfig); repeatable")
	flags.StringArrayVar(&f.anchors, "anchor", nil, "round-scheduler anchor id, in order; defaults to READ_VANILLA,NO_WRITE if omitted")
	flags.StringVar(&f.cacheBackend, "cache", "inmem", `Checksum cache backend: "inmem" or "redis"`)
	flags.StringVar(&f.redisAddr, "redis-addr", "", "Redis address when --cache=redis")
	flags.StringVar(&f.platformKind, "platform", "", `Remote Platform for unregistered classes: "http", "grpc", or empty to disable`)
	flags.StringVar(&f.platformAddr, "platform-addr", "", "Platform base URL (http) or dial address (grpc)")
	flags.StringVar(&f.platformAuth, "platform-auth", "", "Bearer token sent to the grpc Platform, or the HMAC secret the http Platform signs its JWT bearer tokens with")
	flags.BoolVar(&f.insecure, "platform-insecure", false, "Skip TLS for the gRPC platform (local/test only)")
	flags.StringArrayVar(&f.notifySinks, "notify", []string{"log"}, `Lifecycle sinks: any of "log", "webhook", "slack"; repeatable`)
	flags.StringVar(&f.webhookURL, "webhook-url", "", "Webhook URL when --notify includes webhook")
	flags.StringVar(&f.slackURL, "slack-url", "", "Slack incoming-webhook URL when --notify includes slack")
	flags.StringVar(&f.watchAddr, "watch", "", "Listen address for a live --watch progress feed (e.g. :8099); empty disables")
	flags.BoolVar(&f.enableMetrics, "metrics", false, "Expose Prometheus metrics on the --watch listener")
	flags.StringVar(&f.outDir, "out-dir", "", "If set, serialize every modified class back to bytecode here via the codec's Writer")

	return cmd
}

func runProcess(cmd *cobra.Command, f processFlags) error {
	ctx := cmd.Context()
	if f.codecPlugin == "" || f.codecName == "" {
		return fmt.Errorf("process: --codec-plugin and --codec are required (classforge never parses bytecode itself)")
	}

	cfg := config.Load(f.configFile, "CLASSFORGE")
	mergeConfigDefaults(cmd, &f, cfg)

	cdc, err := codec.LoadShared(f.codecPlugin, f.codecName)
	if err != nil {
		return fmt.Errorf("process: %w", err)
	}

	store, err := buildCacheStore(f)
	if err != nil {
		return err
	}

	plat, closePlatform, err := buildPlatform(ctx, f, cdc)
	if err != nil {
		return err
	}
	defer closePlatform()

	sink, err := buildNotifier(f)
	if err != nil {
		return err
	}

	var hub *progress.Hub
	if f.watchAddr != "" {
		hub = progress.NewHub()
		srv := progress.StartHTTP(hub, progress.ListenerConfig{ListenAddr: f.watchAddr, EnableMetrics: f.enableMetrics})
		defer func() { _ = srv.Close() }()
		sink = notify.NewMulti(sink, hub)
	}
	if f.enableMetrics {
		metrics.Register()
	}

	opts := []classforge.Option{classforge.WithCacheStore(store), classforge.WithNotifier(sink)}
	proc := classforge.New(cdc.Reader, plat, opts...)
	defer proc.Close()

	if len(f.anchors) > 0 {
		proc.SetAnchors(f.anchors)
	}
	for _, kv := range f.configKVs {
		k, v, ok := splitKV(kv)
		if !ok {
			return fmt.Errorf("process: --config-value %q must be key=value", kv)
		}
		if err := proc.AddConfig(k, v); err != nil {
			return fmt.Errorf("process: --config-value %s: %w", k, err)
		}
	}
	if f.selector != "" {
		if err := proc.AddConfig("selector", f.selector); err != nil {
			return fmt.Errorf("process: --selector %q: %w", f.selector, err)
		}
	}

	for _, jarSpec := range f.jars {
		path, oldChecksum, _ := splitKV(jarSpec)
		if path == "" {
			path = jarSpec
		}
		newChecksum, err := proc.AddJar(path, oldChecksum)
		if err != nil {
			return fmt.Errorf("process: addJar %s: %w", path, err)
		}
		logging.Logger().Info("registered jar", zap.String("path", path), zap.String("checksum", newChecksum))
	}
	for _, classSpec := range f.classes {
		name, path, ok := splitKV(classSpec)
		if !ok {
			return fmt.Errorf("process: --class %q must be internalName=path", classSpec)
		}
		bc, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("process: reading class %s: %w", path, err)
		}
		proc.AddClass(name, bc)
	}

	if proc.IsUpToDate() {
		fmt.Println("up to date; nothing to do")
		return nil
	}

	start := time.Now()
	if err := proc.Process(ctx); err != nil {
		return fmt.Errorf("process: %w", err)
	}
	logging.Logger().Info("process complete", zap.Duration("elapsed", time.Since(start)))

	modified := proc.GetModifiedClassNames()
	for _, name := range modified {
		fmt.Println(name)
	}

	if f.outDir != "" {
		if cdc.Writer == nil {
			return fmt.Errorf("process: --out-dir given but codec %q registered no Writer", f.codecName)
		}
		if err := writeModified(ctx, proc, cdc.Writer, modified, f.outDir); err != nil {
			return err
		}
	}
	return nil
}

// writeModified serializes every modified class back to bytecode via w and
// writes it to a flat outDir/<name>.class, where <name> is the internal name
// with every "/" replaced by "_". This is the one point where the CLI touches the Writer
// contract spec.md §6 calls out as a narrow external collaborator — never
// the processor's own code.
func writeModified(ctx context.Context, proc *classforge.Processor, w rw.Writer, names []string, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("process: creating %s: %w", outDir, err)
	}
	for _, name := range names {
		class, err := proc.FindClassImmediately(ctx, name)
		if err != nil {
			return fmt.Errorf("process: resolving %s for write-out: %w", name, err)
		}
		bc, err := w.Write(ctx, class)
		if err != nil {
			return fmt.Errorf("process: serializing %s: %w", name, err)
		}
		outPath := outDir + "/" + strings.ReplaceAll(name, "/", "_") + ".class"
		if err := os.WriteFile(outPath, bc, 0o644); err != nil {
			return fmt.Errorf("process: writing %s: %w", outPath, err)
		}
	}
	return nil
}

// mergeConfigDefaults fills in any flag the caller did not explicitly pass
// on the command line from cfg (internal/config.Load's result: the
// --config-file file plus CLASSFORGE_-prefixed env vars). An explicitly-set
// flag always wins over the config file/env.
func mergeConfigDefaults(cmd *cobra.Command, f *processFlags, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("anchor") && len(cfg.Anchors) > 0 {
		f.anchors = cfg.Anchors
	}
	if !flags.Changed("cache") && cfg.CacheBackend != "" {
		f.cacheBackend = cfg.CacheBackend
	}
	if !flags.Changed("redis-addr") && cfg.RedisAddr != "" {
		f.redisAddr = cfg.RedisAddr
	}
	if !flags.Changed("platform") && cfg.PlatformKind != "" {
		f.platformKind = cfg.PlatformKind
	}
	if !flags.Changed("platform-addr") && cfg.PlatformAddr != "" {
		f.platformAddr = cfg.PlatformAddr
	}
	if !flags.Changed("platform-auth") && cfg.PlatformAuth != "" {
		f.platformAuth = cfg.PlatformAuth
	}
	if !flags.Changed("notify") && len(cfg.NotifySinks) > 0 {
		f.notifySinks = cfg.NotifySinks
	}
	if !flags.Changed("webhook-url") && cfg.WebhookURL != "" {
		f.webhookURL = cfg.WebhookURL
	}
	if !flags.Changed("slack-url") && cfg.SlackURL != "" {
		f.slackURL = cfg.SlackURL
	}
	if !flags.Changed("watch") && cfg.ProgressAddr != "" {
		f.watchAddr = cfg.ProgressAddr
	}
	if !flags.Changed("metrics") && cfg.EnableMetrics {
		f.enableMetrics = true
	}
	if !flags.Changed("selector") && cfg.Selector != "" {
		f.selector = cfg.Selector
	}
}

func buildCacheStore(f processFlags) (cache.Store, error) {
	switch f.cacheBackend {
	case "", "inmem":
		return cache.NewInMem(), nil
	case "redis":
		if f.redisAddr == "" {
			return nil, fmt.Errorf("process: --cache=redis requires --redis-addr")
		}
		cli := redis.NewClient(&redis.Options{Addr: f.redisAddr})
		return cache.NewRedis(cli), nil
	default:
		return nil, fmt.Errorf("process: unknown --cache %q", f.cacheBackend)
	}
}

func buildPlatform(ctx context.Context, f processFlags, cdc codec.Codec) (plat rw.Platform, closeFn func(), err error) {
	closeFn = func() {}

	switch f.platformKind {
	case "":
		if cdc.Platform != nil {
			return cdc.Platform, closeFn, nil
		}
		return nil, closeFn, nil
	case "http":
		if f.platformAddr == "" {
			return nil, closeFn, fmt.Errorf("process: --platform=http requires --platform-addr")
		}
		cfg := platform.HTTPConfig{BaseURL: f.platformAddr}
		if f.platformAuth != "" {
			cfg.Auth = auth.NewSigner([]byte(f.platformAuth), "classforge", 0)
			cfg.RunID = util.MustNew()
		}
		hp := platform.NewHTTPPlatform(cfg)
		return hp, closeFn, nil
	case "grpc":
		if f.platformAddr == "" {
			return nil, closeFn, fmt.Errorf("process: --platform=grpc requires --platform-addr")
		}
		gp, err := platform.NewGRPCPlatform(ctx, platform.GRPCConfig{
			Addr:      f.platformAddr,
			AuthToken: f.platformAuth,
			Insecure:  f.insecure,
		})
		if err != nil {
			return nil, closeFn, fmt.Errorf("process: dialing grpc platform: %w", err)
		}
		return gp, func() { _ = gp.Close() }, nil
	default:
		return nil, closeFn, fmt.Errorf("process: unknown --platform %q", f.platformKind)
	}
}

func buildNotifier(f processFlags) (notify.Sink, error) {
	sinks := make([]notify.Sink, 0, len(f.notifySinks))
	for _, name := range f.notifySinks {
		switch strings.TrimSpace(name) {
		case "log":
			sinks = append(sinks, notify.NewLogSink())
		case "webhook":
			if f.webhookURL == "" {
				return nil, fmt.Errorf("process: --notify=webhook requires --webhook-url")
			}
			sinks = append(sinks, notify.NewWebhookSink(f.webhookURL))
		case "slack":
			if f.slackURL == "" {
				return nil, fmt.Errorf("process: --notify=slack requires --slack-url")
			}
			sinks = append(sinks, notify.NewSlackSink(f.slackURL))
		case "":
			// allow an empty --notify to mean "no sinks"
		default:
			return nil, fmt.Errorf("process: unknown --notify sink %q", name)
		}
	}
	return notify.NewMulti(sinks...), nil
}

func splitKV(s string) (key, value string, ok bool) {
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}
