package utils

import (
	"testing"
	"time"
)

func TestPlayerCacheGetSet(t *testing.T) {
	cache := NewPlayerCache(CacheFreshness)
	defer cache.Close()

	lastUpdated := time.Now().UTC()
	cache.Set("alice", 100, lastUpdated)

	snap, ok := cache.Get("alice")
	if !ok {
		t.Fatal("Expected a cache hit for a fresh entry")
	}
	if snap.Balance != 100 {
		t.Errorf("Expected balance 100, got %d", snap.Balance)
	}
	if !snap.LastUpdated.Equal(lastUpdated) {
		t.Errorf("Expected last updated %v, got %v", lastUpdated, snap.LastUpdated)
	}

	if _, ok := cache.Get("bob"); ok {
		t.Error("Expected a miss for an unknown player")
	}
}

func TestPlayerCacheFreshnessWindow(t *testing.T) {
	cache := NewPlayerCache(20 * time.Millisecond)
	defer cache.Close()

	cache.Set("alice", 100, time.Now().UTC())
	if _, ok := cache.Get("alice"); !ok {
		t.Fatal("Expected a hit inside the freshness window")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := cache.Get("alice"); ok {
		t.Error("Expected a miss after the freshness window elapsed")
	}
}

func TestPlayerCacheDeleteAndClear(t *testing.T) {
	cache := NewPlayerCache(CacheFreshness)
	defer cache.Close()

	now := time.Now().UTC()
	cache.Set("alice", 100, now)
	cache.Set("bob", 200, now)

	if cache.Size() != 2 {
		t.Fatalf("Expected size 2, got %d", cache.Size())
	}

	cache.Delete("alice")
	if _, ok := cache.Get("alice"); ok {
		t.Error("Expected alice to be gone after Delete")
	}
	if cache.Size() != 1 {
		t.Errorf("Expected size 1, got %d", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Expected size 0 after Clear, got %d", cache.Size())
	}
}

func TestPlayerCacheCleanupDropsStaleEntries(t *testing.T) {
	cache := NewPlayerCache(10 * time.Millisecond)
	defer cache.Close()

	cache.Set("alice", 100, time.Now().UTC())
	time.Sleep(30 * time.Millisecond)
	cache.Set("bob", 200, time.Now().UTC())

	cache.cleanup()

	if cache.Size() != 1 {
		t.Errorf("Expected only the fresh entry to survive cleanup, size is %d", cache.Size())
	}
	if _, ok := cache.Get("bob"); !ok {
		t.Error("Expected the fresh entry to survive cleanup")
	}
}
