package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// PrefsSchema holds the persisted preferences. ebiview only writes the
// theme key.
const PrefsSchema = `
CREATE TABLE IF NOT EXISTS preferences (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Prefs is a key-value preference store.
type Prefs struct {
	db     *sql.DB
	memory bool
}

// OpenPrefs opens (creating if needed) the preference database at path.
// ":memory:" gives a private in-memory store.
func OpenPrefs(path string) (*Prefs, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("prefs: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("prefs: open: %w", err)
	}
	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		PrefsSchema,
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("prefs: %s: %w", firstLine(p), err)
		}
	}

	return &Prefs{db: db, memory: path == ":memory:"}, nil
}

// Get returns the stored value for key. ok is false when nothing is stored.
func (p *Prefs) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = p.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (p *Prefs) Set(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("prefs: set %s: %w", key, err)
	}
	return nil
}

// Watch polls PRAGMA data_version every interval and calls fn when another
// connection (another ebiview, a manual sqlite3 edit) wrote to the
// database. Blocks until ctx is cancelled. In-memory stores have no
// other writers and return at once.
func (p *Prefs) Watch(ctx context.Context, interval time.Duration, logger *slog.Logger, fn func()) {
	if p.memory {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}

	// data_version is per connection: pin one for the whole watch.
	conn, err := p.db.Conn(ctx)
	if err != nil {
		logger.Warn("prefs: watch: acquire connection", "error", err)
		return
	}
	defer conn.Close()

	version := func() (int64, error) {
		var v int64
		err := conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
		return v, err
	}

	last, err := version()
	if err != nil {
		logger.Warn("prefs: watch: initial version", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, err := version()
			if err != nil {
				logger.Debug("prefs: watch: version check failed", "error", err)
				continue
			}
			if cur != last {
				last = cur
				logger.Info("prefs: external change detected", "version", cur)
				fn()
			}
		}
	}
}

// Close closes the database.
func (p *Prefs) Close() error {
	return p.db.Close()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
