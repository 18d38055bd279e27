package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  postgresDsn: "host=localhost user=postgres"
  redisAddr: "localhost:6379"
auth:
  jwtSecret: "secret"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if conf.Server.Listen != ":8000" {
		t.Fatalf("expected default listen, got %q", conf.Server.Listen)
	}
	if conf.Server.CacheBackend != "redis" {
		t.Fatalf("expected redis default backend, got %q", conf.Server.CacheBackend)
	}
	if conf.Resolver.DefaultCacheTTL != 3600 {
		t.Fatalf("expected default TTL 3600, got %d", conf.Resolver.DefaultCacheTTL)
	}
	if conf.Resolver.MetadataCacheTTL != 120 {
		t.Fatalf("expected metadata TTL 120, got %d", conf.Resolver.MetadataCacheTTL)
	}
	if conf.Resolver.BaseURL == "" {
		t.Fatalf("expected default base url")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  listen: ":9000"
  postgresDsn: "host=db"
  redisAddr: "redis:6379"
  memcachedAddr: "memcached:11211"
  cacheBackend: "memcached"
  enableTrace: true
  traceEndpoint: "otel:4318"
resolver:
  baseUrl: "https://pid.example.org"
  defaultCacheTTL: 600
  metadataCacheTTL: 60
auth:
  jwtSecret: "secret"
  audience: "pid.example.org"
  apiKeys:
    - issuer: "did:example:alice"
      hash: "$2a$10$abcdefghijklmnopqrstuv"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if conf.Server.CacheBackend != "memcached" {
		t.Fatalf("unexpected backend: %q", conf.Server.CacheBackend)
	}
	if conf.Resolver.DefaultCacheTTL != 600 {
		t.Fatalf("unexpected TTL: %d", conf.Resolver.DefaultCacheTTL)
	}
	if len(conf.Auth.APIKeys) != 1 || conf.Auth.APIKeys[0].Issuer != "did:example:alice" {
		t.Fatalf("api keys not parsed: %+v", conf.Auth.APIKeys)
	}
}
