package cogs

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"mcsync-go/utils"
)

type scriptedStore struct {
	mu          sync.Mutex
	player      *utils.PlayerAccount
	deltas      []int64
	failCredits bool
}

func (ss *scriptedStore) FindPlayerByUsername(ctx context.Context, username string) (*utils.PlayerAccount, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.player == nil || ss.player.Username != username {
		return nil, nil
	}
	cp := *ss.player
	return &cp, nil
}

func (ss *scriptedStore) AdjustBalance(ctx context.Context, username string, delta int64, fence time.Time) (int64, bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.player == nil || ss.player.Username != username {
		return 0, false, nil
	}
	if ss.failCredits && delta > 0 {
		return 0, false, nil
	}
	if !ss.player.LastUpdated.Before(fence) {
		return 0, false, nil
	}
	if ss.player.Balance+delta < 0 {
		return 0, false, nil
	}
	ss.deltas = append(ss.deltas, delta)
	ss.player.Balance += delta
	ss.player.LastUpdated = fence
	return ss.player.Balance, true, nil
}

func (ss *scriptedStore) appliedDeltas() []int64 {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return append([]int64(nil), ss.deltas...)
}

func newTestLedger(t *testing.T, store utils.AccountStore) *utils.Ledger {
	t.Helper()
	cache := utils.NewPlayerCache(utils.CacheFreshness)
	t.Cleanup(cache.Close)
	return utils.NewLedger(store, cache, nil)
}

func storeWithAlice(balance int64) *scriptedStore {
	return &scriptedStore{player: &utils.PlayerAccount{
		Username:    "alice",
		Balance:     balance,
		LastUpdated: time.Now().UTC().Add(-time.Minute),
	}}
}

func TestSettleCoinflipForcedWin(t *testing.T) {
	store := storeWithAlice(50)
	ledger := newTestLedger(t, store)

	message, err := settleCoinflip(context.Background(), ledger, "alice", 50, func() bool { return true })
	if err != nil {
		t.Fatalf("settleCoinflip returned error: %v", err)
	}
	if !strings.Contains(message, "You won! +100") {
		t.Errorf("Expected a win message for +100, got %q", message)
	}

	deltas := store.appliedDeltas()
	if len(deltas) != 2 || deltas[0] != -50 || deltas[1] != 100 {
		t.Errorf("Expected deltas [-50 100], got %v", deltas)
	}
	if store.player.Balance != 100 {
		t.Errorf("Expected final balance 100, got %d", store.player.Balance)
	}
}

func TestSettleCoinflipForcedLoss(t *testing.T) {
	store := storeWithAlice(50)
	ledger := newTestLedger(t, store)

	message, err := settleCoinflip(context.Background(), ledger, "alice", 50, func() bool { return false })
	if err != nil {
		t.Fatalf("settleCoinflip returned error: %v", err)
	}
	if !strings.Contains(message, "You lost 50") {
		t.Errorf("Expected a loss message for 50, got %q", message)
	}

	deltas := store.appliedDeltas()
	if len(deltas) != 1 || deltas[0] != -50 {
		t.Errorf("Expected a single -50 delta, got %v", deltas)
	}
	if store.player.Balance != 0 {
		t.Errorf("Expected final balance 0, got %d", store.player.Balance)
	}
}

func TestSettleCoinflipInsufficientBalance(t *testing.T) {
	store := storeWithAlice(30)
	ledger := newTestLedger(t, store)

	flip := func() bool {
		t.Fatal("randomness consumed before a successful debit")
		return false
	}

	message, err := settleCoinflip(context.Background(), ledger, "alice", 50, flip)
	if err != nil {
		t.Fatalf("settleCoinflip returned error: %v", err)
	}
	if message != utils.MsgInsufficientBalance {
		t.Errorf("Expected %q, got %q", utils.MsgInsufficientBalance, message)
	}
	if len(store.appliedDeltas()) != 0 {
		t.Errorf("Expected no mutations, got %v", store.appliedDeltas())
	}
}

func TestSettleCoinflipUnknownPlayer(t *testing.T) {
	store := &scriptedStore{}
	ledger := newTestLedger(t, store)

	message, err := settleCoinflip(context.Background(), ledger, "nonexistent", 50, func() bool { return true })
	if err != nil {
		t.Fatalf("settleCoinflip returned error: %v", err)
	}
	if message != utils.MsgPlayerNotFound {
		t.Errorf("Expected %q, got %q", utils.MsgPlayerNotFound, message)
	}
}

func TestSettleCoinflipRejectedCreditStillReportsWin(t *testing.T) {
	store := storeWithAlice(100)
	store.failCredits = true
	ledger := newTestLedger(t, store)

	message, err := settleCoinflip(context.Background(), ledger, "alice", 50, func() bool { return true })
	if err != nil {
		t.Fatalf("settleCoinflip returned error: %v", err)
	}
	if !strings.Contains(message, "You won") {
		t.Errorf("Expected the win to be reported despite the failed credit, got %q", message)
	}

	deltas := store.appliedDeltas()
	if len(deltas) != 1 || deltas[0] != -50 {
		t.Errorf("Expected only the debit to commit, got %v", deltas)
	}
	if store.player.Balance != 50 {
		t.Errorf("Expected balance 50 after the orphaned debit, got %d", store.player.Balance)
	}
}
