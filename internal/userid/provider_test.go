package userid

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	store, err := NewRedisStoreFromURL(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisStoreFromURL: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestProviderGeneratesAndPersists(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	p := NewProvider(store, "", nil)
	id, err := p.UserID(ctx)
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 4 {
		t.Fatalf("expected uuid v4, got %q (%v)", id, err)
	}
	if got, _ := mr.Get(DefaultKey); got != id {
		t.Fatalf("stored %q, want %q", got, id)
	}

	again, err := NewProvider(store, DefaultKey, nil).UserID(ctx)
	if err != nil {
		t.Fatalf("second provider: %v", err)
	}
	if again != id {
		t.Fatalf("id changed across providers: %q vs %q", again, id)
	}
}

func TestProviderUsesExistingValue(t *testing.T) {
	store, mr := newRedisStore(t)
	if err := mr.Set("custom_key", "preset-id"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	id, err := NewProvider(store, "custom_key", nil).UserID(context.Background())
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if id != "preset-id" {
		t.Fatalf("id = %q", id)
	}
}

func TestProviderCachesAfterFirstCall(t *testing.T) {
	mem := NewMemoryStore()
	p := NewProvider(mem, "k", nil)
	first, err := p.UserID(context.Background())
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	mem.data["k"] = "changed-underneath"
	second, _ := p.UserID(context.Background())
	if first != second {
		t.Fatalf("cached id not reused: %q vs %q", first, second)
	}
	if h := p.Header(context.Background()); h[HeaderName] != first {
		t.Fatalf("header = %v", h)
	}
}

func TestRedisStoreSetIfAbsent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if ok, err := store.SetIfAbsent(ctx, "a", "1"); err != nil || !ok {
		t.Fatalf("first set: ok=%v err=%v", ok, err)
	}
	if ok, err := store.SetIfAbsent(ctx, "a", "2"); err != nil || ok {
		t.Fatalf("second set should be refused: ok=%v err=%v", ok, err)
	}
	if v, _, _ := store.Get(ctx, "a"); v != "1" {
		t.Fatalf("value = %q", v)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected options %+v", opts)
	}
	for _, bad := range []string{"http://localhost", "redis://localhost/x"} {
		if _, err := parseRedisURL(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
