package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FEED_API_URL", "")
	t.Setenv("FEED_REQUEST_TIMEOUT", "")
	t.Setenv("FEED_VAULT", "")
	cfg := Load()
	if cfg.APIURL != "http://localhost:8080/graphql" {
		t.Fatalf("unexpected api url %q", cfg.APIURL)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
	if cfg.Vault != VaultFile {
		t.Fatalf("expected file vault by default, got %q", cfg.Vault)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FEED_API_URL", "http://api.test/graphql")
	t.Setenv("FEED_VAULT", VaultRedis)
	t.Setenv("FEED_REQUEST_TIMEOUT", "3s")
	t.Setenv("FEED_PROFILE", "alice")

	cfg := Load()
	if cfg.APIURL != "http://api.test/graphql" || cfg.Vault != VaultRedis || cfg.Profile != "alice" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %v", cfg.RequestTimeout)
	}
}

func TestInitStoresFile(t *testing.T) {
	cfg := &Config{Vault: VaultFile, VaultPath: filepath.Join(t.TempDir(), "v"), VaultSecret: "s"}
	stores, err := InitStores(context.Background(), cfg)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer stores.Close()
	if err := stores.Vault.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestInitStoresRedis(t *testing.T) {
	s := miniredis.RunT(t)
	stores, err := InitStores(context.Background(), &Config{Vault: VaultRedis, RedisAddr: s.Addr(), Profile: "p"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer stores.Close()
	if err := stores.Vault.Set(context.Background(), "userId", "u1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := s.Get("feedclient:p:userId"); got != "u1" {
		t.Fatalf("expected value in redis, got %q", got)
	}
}

func TestInitStoresErrors(t *testing.T) {
	if _, err := InitStores(context.Background(), &Config{Vault: "floppy"}); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if _, err := InitStores(context.Background(), &Config{Vault: VaultPostgres}); err == nil {
		t.Fatalf("expected missing connection string error")
	}
}

func TestInitStubStoreSeedsMemory(t *testing.T) {
	stub, err := InitStubStore(context.Background(), &Config{StubStore: StubMemory})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer stub.Close()
	users, _ := stub.Users.ListUsers(context.Background())
	if len(users) != 2 {
		t.Fatalf("expected seeded users, got %+v", users)
	}
}

func TestInitStubStoreErrors(t *testing.T) {
	if _, err := InitStubStore(context.Background(), &Config{StubStore: StubMongo}); err == nil {
		t.Fatal("expected error without MONGO_URI")
	}
	if _, err := InitStubStore(context.Background(), &Config{StubStore: "sqlite"}); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
