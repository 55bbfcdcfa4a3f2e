package utils

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"
)

// HTTPSyncNotifier tells the Minecraft server that a player's stored balance
// changed and an in-game resync is needed. Strictly best-effort: every failure
// is logged and swallowed, never surfaced to the player.
type HTTPSyncNotifier struct {
	apiURL string
	client *http.Client
}

// NewSyncNotifier creates a notifier from the MINECRAFT_SYNC_URL environment
// variable. Returns nil when the URL is not configured; a nil notifier is safe
// to call and does nothing.
func NewSyncNotifier() *HTTPSyncNotifier {
	apiURL := os.Getenv("MINECRAFT_SYNC_URL")
	if apiURL == "" {
		return nil
	}

	return &HTTPSyncNotifier{
		apiURL: apiURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NotifySync posts the username to the sync endpoint
func (n *HTTPSyncNotifier) NotifySync(username string) {
	if n == nil || n.apiURL == "" {
		return
	}

	payload, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		log.Printf("Failed to encode sync notification for %s: %v", username, err)
		return
	}

	resp, err := n.client.Post(n.apiURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("Failed to notify Minecraft for sync: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Minecraft sync notification for %s returned status %d", username, resp.StatusCode)
		return
	}

	log.Printf("Minecraft sync triggered for %s", username)
}
