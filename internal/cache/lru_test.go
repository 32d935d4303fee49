package cache

import (
	"testing"
	"time"
)

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() on empty cache returned ok")
	}

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}

	// "a" was touched, so adding "c" must evict "b"
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Error("Get(b) returned ok, want eviction")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) after eviction = %v, %v, want 1, true", v, ok)
	}
}

func TestLRUCache_TTL(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("Get() returned ok for expired entry")
	}
	if cleaned := c.CleanExpired(); cleaned != 0 {
		// Get already dropped the expired entry
		t.Errorf("CleanExpired() = %d, want 0", cleaned)
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("jar1:months", 1)
	c.Set("jar1:summary:2024-01-01", 2)
	c.Set("jar2:months", 3)

	if removed := c.DeletePrefix("jar1:"); removed != 2 {
		t.Errorf("DeletePrefix() = %d, want 2", removed)
	}
	if _, ok := c.Get("jar1:months"); ok {
		t.Error("Get(jar1:months) returned ok after DeletePrefix")
	}
	if _, ok := c.Get("jar2:months"); !ok {
		t.Error("Get(jar2:months) missing, DeletePrefix removed too much")
	}
}
