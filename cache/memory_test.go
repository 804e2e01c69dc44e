package cache

import (
	"bytes"
	"context"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := c.Get(ctx, "key1")
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if !bytes.Equal(got, []byte("value1")) {
		t.Errorf("Get() = %s, want value1", got)
	}
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()

	if _, ok := c.Get(context.Background(), "absent"); ok {
		t.Error("Get() on absent key should miss")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), 20*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Before expiry the value is returned
	if _, ok := c.Get(ctx, "key1"); !ok {
		t.Error("Get() before expiry should hit")
	}

	time.Sleep(30 * time.Millisecond)

	// At or after expiry the entry is treated as absent
	if _, ok := c.Get(ctx, "key1"); ok {
		t.Error("Get() after expiry should miss")
	}
}

func TestMemoryCache_ZeroTTLDisablesCaching(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	if err := c.Set(ctx, "key1", []byte("value1"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok := c.Get(ctx, "key1"); ok {
		t.Error("Get() should miss when TTL=0 disabled caching")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "key1", []byte("value1"), time.Minute)

	if err := c.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := c.Get(ctx, "key1"); ok {
		t.Error("Get() after delete should miss")
	}

	// Deleting an absent key is idempotent
	if err := c.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete() on absent key error = %v", err)
	}
}

func TestMemoryCache_Sweep(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "stale", []byte("v"), 10*time.Millisecond)
	_ = c.Set(ctx, "fresh", []byte("v"), time.Minute)

	time.Sleep(20 * time.Millisecond)

	if removed := c.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryCache_Overwrite(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_ = c.Set(ctx, "key1", []byte("old"), time.Minute)
	_ = c.Set(ctx, "key1", []byte("new"), time.Minute)

	got, _ := c.Get(ctx, "key1")
	if !bytes.Equal(got, []byte("new")) {
		t.Errorf("Get() = %s, want new", got)
	}
}
