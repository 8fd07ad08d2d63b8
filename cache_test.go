package erpclient

import (
	"testing"
	"time"
)

func TestMemoryCacheGetSetRemove(t *testing.T) {
	cache := NewMemoryCache(0)

	if _, ok := cache.Get("missing"); ok {
		t.Error("unexpected hit")
	}

	cache.Set("core/accounts?page=1", 42)
	value, ok := cache.Get("core/accounts?page=1")
	if !ok || value != 42 {
		t.Errorf("unexpected entry: %v %v", value, ok)
	}

	cache.Remove("core/accounts?page=1")
	if _, ok := cache.Get("core/accounts?page=1"); ok {
		t.Error("entry survived Remove")
	}
}

func TestMemoryCacheInvalidatePrefix(t *testing.T) {
	cache := NewMemoryCache(0)
	cache.Set("core/accounts?page=1", 1)
	cache.Set("core/accounts/7", 2)
	cache.Set("core/accounts/7/shipping_addresses", 3)
	cache.Set("auth/current", 4)

	cache.Invalidate("core/accounts")

	for _, key := range []string{
		"core/accounts?page=1",
		"core/accounts/7",
		"core/accounts/7/shipping_addresses",
	} {
		if _, ok := cache.Get(key); ok {
			t.Error("entry survived Invalidate:", key)
		}
	}
	if _, ok := cache.Get("auth/current"); !ok {
		t.Error("unrelated entry was invalidated")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	cache := NewMemoryCache(0)
	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Clear()

	if _, ok := cache.Get("a"); ok {
		t.Error("entry survived Clear")
	}
	if _, ok := cache.Get("b"); ok {
		t.Error("entry survived Clear")
	}
}

func TestMemoryCacheStaleness(t *testing.T) {
	current := time.Unix(1000, 0)
	cache := NewMemoryCache(time.Minute)
	cache.now = func() time.Time { return current }

	cache.Set("auth/current", "fresh")

	current = current.Add(30 * time.Second)
	if _, ok := cache.Get("auth/current"); !ok {
		t.Error("entry went stale too early")
	}

	current = current.Add(31 * time.Second)
	if _, ok := cache.Get("auth/current"); ok {
		t.Error("stale entry served as a hit")
	}
}
