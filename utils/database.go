package utils

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlayerAccount is one row in the players table. Rows are created by the
// Minecraft-side plugin when a player first joins; the bot only reads them and
// conditionally updates balance, last_updated and discord_id.
type PlayerAccount struct {
	Username    string
	DiscordID   *string
	Balance     int64
	LastUpdated time.Time
	SyncCode    *string
	CreatedAt   time.Time
}

// PGStore is the players collection behind a pgx connection pool.
type PGStore struct {
	pool *pgxpool.Pool
}

var (
	DB            *PGStore
	dbInitialized = false
	dbMutex       sync.Mutex
)

// SetupDatabase initializes the database connection pool
func SetupDatabase() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// The bot's workload is a handful of point reads and single-row updates
	// per interaction; a small pool is plenty.
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "mcsync-bot",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	DB = &PGStore{pool: pool}
	dbInitialized = true

	if err := DB.createPlayersTable(ctx); err != nil {
		return err
	}

	return nil
}

// CloseDatabase closes the database connection pool
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if DB != nil {
		DB.pool.Close()
		DB = nil
		dbInitialized = false
	}
}

// createPlayersTable creates the players table if it does not exist
func (s *PGStore) createPlayersTable(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS players (
		username TEXT PRIMARY KEY,
		discord_id TEXT,
		balance BIGINT NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
		sync_code TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_players_discord_id ON players(discord_id);
	CREATE INDEX IF NOT EXISTS idx_players_sync_code ON players(sync_code);`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create players table: %w", err)
	}
	return nil
}

const playerColumns = "username, discord_id, balance, last_updated, sync_code, created_at"

func scanPlayer(row pgx.Row) (*PlayerAccount, error) {
	var p PlayerAccount
	err := row.Scan(
		&p.Username,
		&p.DiscordID,
		&p.Balance,
		&p.LastUpdated,
		&p.SyncCode,
		&p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// FindPlayerByUsername returns the player with the given Minecraft username,
// or nil if no such player exists.
func (s *PGStore) FindPlayerByUsername(ctx context.Context, username string) (*PlayerAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM players WHERE username = $1", playerColumns)

	player, err := scanPlayer(s.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", username, err)
	}
	return player, nil
}

// FindPlayerByDiscordID returns the player linked to the given Discord user,
// or nil if the Discord account has not been synced.
func (s *PGStore) FindPlayerByDiscordID(ctx context.Context, discordID string) (*PlayerAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM players WHERE discord_id = $1", playerColumns)

	player, err := scanPlayer(s.pool.QueryRow(ctx, query, discordID))
	if err != nil {
		return nil, fmt.Errorf("failed to get player for discord id %s: %w", discordID, err)
	}
	return player, nil
}

// FindPlayerBySyncCode returns the player matching both the one-time sync code
// and the Minecraft username, or nil if the pair doesn't match any row.
func (s *PGStore) FindPlayerBySyncCode(ctx context.Context, code, username string) (*PlayerAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM players WHERE sync_code = $1 AND username = $2", playerColumns)

	player, err := scanPlayer(s.pool.QueryRow(ctx, query, code, username))
	if err != nil {
		return nil, fmt.Errorf("failed to look up sync code: %w", err)
	}
	return player, nil
}

// LinkDiscordAccount sets discord_id on the row matching the sync code and
// username. The discord_id IS NULL guard makes the link one-way: a row that is
// already synced is never overwritten, even if two /sync calls race.
func (s *PGStore) LinkDiscordAccount(ctx context.Context, code, username, discordID string) (bool, error) {
	query := `UPDATE players SET discord_id = $3
		WHERE sync_code = $1 AND username = $2 AND discord_id IS NULL`

	tag, err := s.pool.Exec(ctx, query, code, username, discordID)
	if err != nil {
		return false, fmt.Errorf("failed to link discord account for %s: %w", username, err)
	}
	return tag.RowsAffected() > 0, nil
}

// AdjustBalance applies delta to the player's balance in a single conditional
// write. The write commits only if the stored last_updated is still strictly
// older than the fencing timestamp and the resulting balance stays
// non-negative; otherwise no row matches and ok is false. The returned balance
// is the authoritative post-update value.
func (s *PGStore) AdjustBalance(ctx context.Context, username string, delta int64, fence time.Time) (int64, bool, error) {
	query := `UPDATE players
		SET balance = balance + $2, last_updated = $3
		WHERE username = $1 AND last_updated < $3 AND balance + $2 >= 0
		RETURNING balance`

	var newBalance int64
	err := s.pool.QueryRow(ctx, query, username, delta, fence).Scan(&newBalance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to adjust balance for %s: %w", username, err)
	}
	return newBalance, true, nil
}
