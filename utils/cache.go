package utils

import (
	"log"
	"sync"
	"time"
)

// PlayerSnapshot is a recently-read view of a player's balance. It is never
// authoritative: writes always go to the database, and the snapshot only
// exists to skip redundant reads inside the freshness window.
type PlayerSnapshot struct {
	Balance     int64
	LastUpdated time.Time
	CachedAt    time.Time
}

// PlayerCache maps Minecraft usernames to balance snapshots. It is shared by
// all concurrent interactions and must not be used for mutual exclusion; the
// conditional write in the database is the only concurrency guard.
type PlayerCache struct {
	data          map[string]PlayerSnapshot
	mutex         sync.RWMutex
	freshness     time.Duration
	cleanupTicker *time.Ticker
	done          chan bool
}

// NewPlayerCache creates a cache whose entries go stale after the given
// freshness window. A cleanup goroutine drops stale entries every 5 minutes.
func NewPlayerCache(freshness time.Duration) *PlayerCache {
	pc := &PlayerCache{
		data:      make(map[string]PlayerSnapshot),
		freshness: freshness,
		done:      make(chan bool),
	}

	pc.cleanupTicker = time.NewTicker(5 * time.Minute)
	go pc.cleanupRoutine()

	return pc
}

// Close stops the cache cleanup routine
func (pc *PlayerCache) Close() {
	if pc.cleanupTicker != nil {
		pc.cleanupTicker.Stop()
		close(pc.done)
	}
}

// Get returns the snapshot for username if one exists and is still inside the
// freshness window.
func (pc *PlayerCache) Get(username string) (PlayerSnapshot, bool) {
	pc.mutex.RLock()
	snap, exists := pc.data[username]
	pc.mutex.RUnlock()

	if !exists || time.Since(snap.CachedAt) > pc.freshness {
		return PlayerSnapshot{}, false
	}
	return snap, true
}

// Set stores a fresh snapshot for username
func (pc *PlayerCache) Set(username string, balance int64, lastUpdated time.Time) {
	pc.mutex.Lock()
	pc.data[username] = PlayerSnapshot{
		Balance:     balance,
		LastUpdated: lastUpdated,
		CachedAt:    time.Now(),
	}
	pc.mutex.Unlock()
}

// Delete removes a player from cache
func (pc *PlayerCache) Delete(username string) {
	pc.mutex.Lock()
	delete(pc.data, username)
	pc.mutex.Unlock()
}

// Size returns the number of entries in cache
func (pc *PlayerCache) Size() int {
	pc.mutex.RLock()
	defer pc.mutex.RUnlock()
	return len(pc.data)
}

// Clear removes all entries from cache
func (pc *PlayerCache) Clear() {
	pc.mutex.Lock()
	pc.data = make(map[string]PlayerSnapshot)
	pc.mutex.Unlock()
}

// cleanupRoutine removes stale entries periodically
func (pc *PlayerCache) cleanupRoutine() {
	for {
		select {
		case <-pc.cleanupTicker.C:
			pc.cleanup()
		case <-pc.done:
			return
		}
	}
}

// cleanup removes entries that have aged out of the freshness window
func (pc *PlayerCache) cleanup() {
	expiredKeys := make([]string, 0)

	pc.mutex.RLock()
	for username, snap := range pc.data {
		if time.Since(snap.CachedAt) > pc.freshness {
			expiredKeys = append(expiredKeys, username)
		}
	}
	pc.mutex.RUnlock()

	if len(expiredKeys) > 0 {
		pc.mutex.Lock()
		for _, username := range expiredKeys {
			delete(pc.data, username)
		}
		pc.mutex.Unlock()

		log.Printf("Cleaned up %d stale cache entries. Cache size: %d", len(expiredKeys), pc.Size())
	}
}
