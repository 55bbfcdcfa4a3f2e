package utils

import "time"

// General Configuration
const (
	BotColor = 0x5865F2

	// CacheFreshness is how long a cached balance read is trusted before the
	// ledger forces a re-read from the database.
	CacheFreshness = 5 * time.Second
)

// User-facing ledger messages. Players see these verbatim in command replies.
const (
	MsgPlayerNotFound      = "Player not found."
	MsgInsufficientBalance = "Insufficient balance."
	MsgBalanceConflict     = "Your balance update conflicts with a newer transaction."
	MsgUpdateConflict      = "Failed to update balance due to conflict."
)
