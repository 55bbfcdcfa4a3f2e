package utils

import (
	"context"
	"fmt"
	"time"
)

// AccountStore is the slice of the database the ledger depends on.
type AccountStore interface {
	FindPlayerByUsername(ctx context.Context, username string) (*PlayerAccount, error)
	AdjustBalance(ctx context.Context, username string, delta int64, fence time.Time) (int64, bool, error)
}

// SyncNotifier is told, best-effort, that a player's balance changed and the
// game server should resync it.
type SyncNotifier interface {
	NotifySync(username string)
}

// AdjustStatus tags the business outcome of a balance adjustment.
type AdjustStatus int

const (
	AdjustSuccess AdjustStatus = iota
	AdjustNotFound
	AdjustInsufficientBalance
	AdjustConflict
)

// AdjustResult is the outcome of ApplyAdjustment. NewBalance is set on
// success; Message carries the player-facing text on failure.
type AdjustResult struct {
	Status     AdjustStatus
	NewBalance int64
	Message    string
}

// Ledger applies signed deltas to player balances with a freshness-fenced
// conditional write, keeping a short-lived read cache in front of the store.
type Ledger struct {
	store    AccountStore
	cache    *PlayerCache
	notifier SyncNotifier
}

// NewLedger wires a ledger to its store, cache and notifier. notifier may be
// nil (or a nil *HTTPSyncNotifier) to disable sync notifications.
func NewLedger(store AccountStore, cache *PlayerCache, notifier SyncNotifier) *Ledger {
	return &Ledger{
		store:    store,
		cache:    cache,
		notifier: notifier,
	}
}

// ApplyAdjustment adds delta (positive = credit, negative = debit) to the
// player's balance. Business failures come back as a tagged AdjustResult; a
// non-nil error means the store itself failed and nothing can be said about
// the balance.
//
// Debits are fenced twice: once here against the snapshot's last_updated (a
// stored timestamp newer than our own clock means a stale read or clock
// anomaly), and once in the store's conditional write. Credits skip the first
// fence on purpose; overpaying a player is the safer direction when the
// winnings leg of a game is on the line.
func (l *Ledger) ApplyAdjustment(ctx context.Context, username string, delta int64) (AdjustResult, error) {
	snap, ok := l.cache.Get(username)
	if !ok {
		player, err := l.store.FindPlayerByUsername(ctx, username)
		if err != nil {
			return AdjustResult{}, fmt.Errorf("failed to load player %s: %w", username, err)
		}
		if player == nil {
			return AdjustResult{Status: AdjustNotFound, Message: MsgPlayerNotFound}, nil
		}
		l.cache.Set(username, player.Balance, player.LastUpdated)
		snap = PlayerSnapshot{Balance: player.Balance, LastUpdated: player.LastUpdated}
	}

	newBalance := snap.Balance + delta
	if newBalance < 0 {
		return AdjustResult{Status: AdjustInsufficientBalance, Message: MsgInsufficientBalance}, nil
	}

	now := time.Now().UTC()
	if delta < 0 && snap.LastUpdated.After(now) {
		return AdjustResult{Status: AdjustConflict, Message: MsgBalanceConflict}, nil
	}

	updated, matched, err := l.store.AdjustBalance(ctx, username, delta, now)
	if err != nil {
		return AdjustResult{}, fmt.Errorf("failed to update balance for %s: %w", username, err)
	}
	if !matched {
		return AdjustResult{Status: AdjustConflict, Message: MsgUpdateConflict}, nil
	}

	l.cache.Set(username, updated, now)

	if l.notifier != nil {
		go l.notifier.NotifySync(username)
	}

	return AdjustResult{Status: AdjustSuccess, NewBalance: updated}, nil
}
