package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func exerciseVault(t *testing.T, v Vault) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := v.Get(ctx, TokenKey); err != nil || ok {
		t.Fatalf("expected empty vault, got ok=%v err=%v", ok, err)
	}
	if err := v.Set(ctx, TokenKey, "t1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := v.Set(ctx, TokenKey, "t2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, ok, err := v.Get(ctx, TokenKey); err != nil || !ok || got != "t2" {
		t.Fatalf("expected t2, got %q ok=%v err=%v", got, ok, err)
	}
	if err := v.Delete(ctx, TokenKey); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := v.Delete(ctx, TokenKey); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := v.Get(ctx, TokenKey); ok {
		t.Fatalf("expected value removed")
	}
}

func TestMemoryVault(t *testing.T) {
	exerciseVault(t, NewMemoryVault())
}

func TestFileVault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.vault")
	v, err := NewFileVault(path, "passphrase")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	exerciseVault(t, v)
}

func TestFileVaultEncryptsAndReopens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.vault")
	v, _ := NewFileVault(path, "passphrase")
	if err := v.Set(ctx, TokenKey, "super-secret-token"); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(raw), "super-secret-token") {
		t.Fatalf("expected token to be encrypted on disk")
	}

	reopened, _ := NewFileVault(path, "passphrase")
	if got, ok, err := reopened.Get(ctx, TokenKey); err != nil || !ok || got != "super-secret-token" {
		t.Fatalf("expected token after reopen, got %q ok=%v err=%v", got, ok, err)
	}

	wrong, _ := NewFileVault(path, "other")
	if _, _, err := wrong.Get(ctx, TokenKey); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}
}

func TestNewFileVaultRequiresSecret(t *testing.T) {
	if _, err := NewFileVault(filepath.Join(t.TempDir(), "v"), ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestRedisVault(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	v := NewRedisVault(client, "alice")
	exerciseVault(t, v)

	_ = v.Set(context.Background(), UserIDKey, "u1")
	if got, err := s.Get("feedclient:alice:userId"); err != nil || got != "u1" {
		t.Fatalf("expected namespaced key, got %q err=%v", got, err)
	}
}

func TestRedisVaultSurfacesConnectionErrors(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	defer client.Close()
	s.Close()

	if _, _, err := NewRedisVault(client, "").Get(context.Background(), TokenKey); err == nil {
		t.Fatalf("expected error from closed redis")
	}
}

func TestGormVault(t *testing.T) {
	dsn := os.Getenv("POSTGRES_CONN_STR")
	if dsn == "" {
		t.Skip("POSTGRES_CONN_STR not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v, err := NewGormVault(db, "test-"+t.Name())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	exerciseVault(t, v)
}
