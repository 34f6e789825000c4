package setup

import (
	"context"
	"testing"

	"github.com/dropDatabas3/peergate/internal/config"
)

func TestRegistry_Memory(t *testing.T) {
	cfg := &config.Config{}
	cfg.Challenge.Backend = "memory"
	cfg.Challenge.TTL = "1m"

	r, err := Registry(cfg)
	if err != nil {
		t.Fatalf("Registry err: %v", err)
	}

	ctx := context.Background()
	tok, err := r.Issue(ctx, "client-1")
	if err != nil {
		t.Fatalf("Issue err: %v", err)
	}
	id, err := r.Resolve(ctx, tok)
	if err != nil || id != "client-1" {
		t.Fatalf("Resolve: id=%q err=%v", id, err)
	}
}

func TestRegistry_DefaultsToMemory(t *testing.T) {
	if _, err := Registry(&config.Config{}); err != nil {
		t.Fatalf("empty backend should default to memory: %v", err)
	}
}

func TestRegistry_Redis(t *testing.T) {
	cfg := &config.Config{}
	cfg.Challenge.Backend = "redis"
	cfg.Challenge.Redis.Addr = "localhost:6379"

	// go-redis conecta de forma lazy: construir no toca la red.
	r, err := Registry(cfg)
	if err != nil {
		t.Fatalf("Registry err: %v", err)
	}
	if r == nil {
		t.Fatalf("nil registry")
	}
}

func TestRegistry_UnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Challenge.Backend = "etcd"
	if _, err := Registry(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestVerifier(t *testing.T) {
	if v := Verifier(&config.Config{}); v != nil {
		t.Fatalf("no providers should yield nil verifier")
	}

	cfg := &config.Config{}
	cfg.OIDC = append(cfg.OIDC, struct {
		Name     string `yaml:"name"`
		Issuer   string `yaml:"issuer"`
		ClientID string `yaml:"client_id"`
	}{Name: "example", Issuer: "https://accounts.example", ClientID: "abc"})

	v := Verifier(cfg)
	if v == nil {
		t.Fatalf("nil verifier with providers configured")
	}
	names := v.DisplayNames()
	if names["https://accounts.example"] != "example" {
		t.Fatalf("display names: %v", names)
	}
}
