package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaultsWithNoFileOrEnv(t *testing.T) {
	cfg := Load("", "")
	want := DefaultConfig()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("expected bare defaults %+v, got %+v", want, cfg)
	}
}

func TestLoadMergesEnvOverDefaults(t *testing.T) {
	t.Setenv("CLASSFORGE_CACHE_BACKEND", "redis")
	t.Setenv("CLASSFORGE_REDIS_ADDR", "cache.internal:6379")
	t.Setenv("CLASSFORGE_SELECTOR", `name startsWith "com/example/"`)

	cfg := Load("", "CLASSFORGE")
	if cfg.CacheBackend != "redis" {
		t.Fatalf("expected cache_backend from env, got %q", cfg.CacheBackend)
	}
	if cfg.RedisAddr != "cache.internal:6379" {
		t.Fatalf("expected redis_addr from env, got %q", cfg.RedisAddr)
	}
	if cfg.Selector != `name startsWith "com/example/"` {
		t.Fatalf("expected selector from env, got %q", cfg.Selector)
	}
	// Fields untouched by env should still carry DefaultConfig's values.
	if cfg.PlatformKind != "http" {
		t.Fatalf("expected default platform_kind to survive the merge, got %q", cfg.PlatformKind)
	}
}

func TestLoadMergesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classforge.yaml")
	contents := "cache_backend: redis\nredis_addr: \"10.0.0.1:6379\"\nselector: \"public && !interface\"\nanchors:\n  - READ_VANILLA\n  - NO_WRITE\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Load(path, "")
	if cfg.CacheBackend != "redis" {
		t.Fatalf("expected cache_backend from file, got %q", cfg.CacheBackend)
	}
	if cfg.RedisAddr != "10.0.0.1:6379" {
		t.Fatalf("expected redis_addr from file, got %q", cfg.RedisAddr)
	}
	if cfg.Selector != "public && !interface" {
		t.Fatalf("expected selector from file, got %q", cfg.Selector)
	}
	if len(cfg.Anchors) != 2 || cfg.Anchors[0] != "READ_VANILLA" || cfg.Anchors[1] != "NO_WRITE" {
		t.Fatalf("expected anchors from file, got %v", cfg.Anchors)
	}
}

func TestLoadMissingFileIsNotFatal(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"), "")
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("expected a missing config file to fall back to defaults, got %+v", cfg)
	}
}

func TestDefaultConfigTimeouts(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RedisTimeout != 2*time.Second {
		t.Fatalf("expected default redis timeout of 2s, got %v", cfg.RedisTimeout)
	}
	if cfg.DialTimeout != 5*time.Second {
		t.Fatalf("expected default dial timeout of 5s, got %v", cfg.DialTimeout)
	}
}
