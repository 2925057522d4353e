// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, and
// cross-compilation works the same as for any other Go package. The
// collection lives in a single file next to the binary, with no database
// server to run.
//
// CONNECTIONS:
// sql.DB is a pool. Every repository method borrows a connection for one
// statement (autocommit) and hands it back when the statement or row
// iterator is done, including on error paths. The pool applies the
// connection PRAGMAs below to every connection it opens, so the settings
// hold no matter which connection a call lands on.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/hostcart/internal/config"
)

// Options tunes the SQLite connection. None of these change behaviour, only
// performance and how long a call waits on a locked file.
type Options struct {
	// BusyTimeout is how long a statement waits for another writer to
	// release the file before failing with SQLITE_BUSY.
	BusyTimeout time.Duration
	// CacheSizePages is the page cache size, in pages.
	CacheSizePages int
	// MmapSize is the memory-mapped I/O window, in bytes.
	MmapSize int64
}

// DefaultOptions mirrors the tuning the collection has always shipped with.
func DefaultOptions() Options {
	return Options{
		BusyTimeout:    30 * time.Second,
		CacheSizePages: 10000,
		MmapSize:       256 * 1024 * 1024,
	}
}

// DB wraps a sql.DB connection pool and implements the repositories.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if needed) the database at dbPath with DefaultOptions.
//
// dbPath examples:
//   - "database/data.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database, limited to one connection
func New(dbPath string) (*DB, error) {
	return Open(dbPath, DefaultOptions())
}

// NewFromConfig opens the database file named by the configuration store's
// database section.
func NewFromConfig(cfg *config.Store) (*DB, error) {
	dbCfg, err := cfg.Database()
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading database config: %w", err)
	}
	return New(dbCfg.DBFile)
}

// Open is New with explicit tuning options.
func Open(dbPath string, opts Options) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath, opts))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database %s: %w", dbPath, err)
	}

	// Every new connection to ":memory:" is a separate, empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open is lazy; Ping surfaces a bad path or permissions right away.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database %s: %w", dbPath, err)
	}

	db := &DB{conn: conn, path: dbPath}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	// Lets SQLite refresh planner statistics for the indexes created above.
	if _, err := conn.Exec("PRAGMA optimize"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: optimizing database: %w", err)
	}

	return db, nil
}

// dsn appends the per-connection PRAGMAs as _pragma query parameters, which
// the modernc driver runs on every connection it opens.
func dsn(dbPath string, opts Options) string {
	pragmas := []string{
		fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()),
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
		"temp_store(MEMORY)",
		fmt.Sprintf("cache_size(%d)", opts.CacheSizePages),
		fmt.Sprintf("mmap_size(%d)", opts.MmapSize),
	}

	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return dbPath + "?" + q.Encode()
}

// Close closes the connection pool, checkpointing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database file can still be reached.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Path returns the database file the pool was opened on.
func (db *DB) Path() string {
	return db.path
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_games (
			id               INTEGER PRIMARY KEY,
			game_id          TEXT NOT NULL,
			name             TEXT NOT NULL,
			summary          TEXT,
			release_date     TEXT,
			genres           TEXT,
			platforms        TEXT,
			cover_url        TEXT,
			screenshots      TEXT,
			developer        TEXT,
			publisher        TEXT,
			rating           REAL,
			metacritic_score INTEGER,
			created_at       TEXT,
			updated_at       TEXT,
			status           TEXT NOT NULL,
			tags             TEXT NOT NULL,
			user_rating      INTEGER,
			user_review      TEXT,
			played_time      INTEGER NOT NULL,
			date_added       TEXT NOT NULL,
			date_started     TEXT,
			date_completed   TEXT,
			last_played      TEXT,
			notes            TEXT,
			UNIQUE(game_id)
		);
		CREATE INDEX IF NOT EXISTS idx_user_games_id ON user_games (id);
		CREATE INDEX IF NOT EXISTS idx_user_games_game_id ON user_games (game_id);
		CREATE INDEX IF NOT EXISTS idx_user_games_status ON user_games (status);
	`)
	if err != nil {
		return fmt.Errorf("creating user_games table: %w", err)
	}
	return nil
}
