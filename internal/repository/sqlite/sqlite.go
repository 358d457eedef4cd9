// Package sqlite implements repository.Store on SQLite via database/sql.
//
// WHY modernc.org/sqlite?
// It is a pure-Go translation of SQLite — no CGo, no C toolchain, works
// everywhere Go compiles. The driver registers itself under the name
// "sqlite" through the blank import below.
//
// TRANSACTION DESIGN:
// Every query method is written against the dbtx interface, which both
// *sql.DB and *sql.Tx satisfy. A DB normally runs its queries on the
// pool; InTx hands the callback a second DB whose conn is a *sql.Tx, so
// the exact same repository methods execute inside the transaction with
// no duplicated SQL. This is the store's one unit-of-work mechanism —
// the purchase flow, the reward draw, and registration's starter grant
// all go through it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/4hbab/pixel-market/internal/repository"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repository methods use.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB implements repository.Store. conn is either the pool or, inside
// InTx, the open transaction. pool is nil in the transactional copy —
// that is also the nesting guard.
type DB struct {
	conn dbtx
	pool *sql.DB
}

// compile-time check that *DB implements the full store surface.
var _ repository.Store = (*DB)(nil)

// New opens (or creates) the SQLite database at dbPath and runs the
// migrations. Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	pool, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on
	// the first query.
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// Single connection: SQLite allows one writer at a time anyway, and
	// funnelling everything through one connection turns concurrent
	// write transactions into a queue instead of SQLITE_BUSY failures.
	// Artwork purchases depend on this — see ArtworkService.Purchase.
	pool.SetMaxOpenConns(1)

	// WAL lets readers proceed while a write transaction is open.
	if _, err := pool.Exec("PRAGMA journal_mode=WAL"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := pool.Exec("PRAGMA foreign_keys=ON"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: pool, pool: pool}

	if err := db.migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection pool. No-op on the
// transactional copy handed to InTx callbacks.
func (db *DB) Close() error {
	if db.pool == nil {
		return nil
	}
	return db.pool.Close()
}

// InTx runs fn against a transactional copy of the store. Commit on
// nil, rollback on error or panic — the single structured exit path for
// every multi-step mutation.
//
// Calling InTx on a store that is already transactional joins the
// ongoing transaction rather than nesting a second one; SQLite has no
// true nested transactions and every caller here wants "make my steps
// part of the current atomic unit" semantics.
func (db *DB) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if db.pool == nil {
		return fn(db)
	}

	tx, err := db.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&DB{conn: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("sqlite: rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it
// idempotent — safe to run on every start.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				handle        TEXT NOT NULL UNIQUE,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				balance       INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
		`},
		{"pixel_blocks", `
			CREATE TABLE IF NOT EXISTS pixel_blocks (
				id     TEXT PRIMARY KEY,
				name   TEXT NOT NULL,
				tone   TEXT NOT NULL DEFAULT '',
				rarity TEXT NOT NULL DEFAULT '',
				rgb    TEXT NOT NULL DEFAULT '#000000'
			);
		`},
		{"palettes", `
			CREATE TABLE IF NOT EXISTS palettes (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				block_id   TEXT NOT NULL REFERENCES pixel_blocks(id),
				count      INTEGER NOT NULL DEFAULT 0,
				updated_at DATETIME NOT NULL,
				UNIQUE (user_id, block_id)
			);
			CREATE INDEX IF NOT EXISTS idx_palettes_user_id ON palettes(user_id);
		`},
		{"artworks", `
			CREATE TABLE IF NOT EXISTS artworks (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id),
				title      TEXT NOT NULL,
				status     TEXT NOT NULL DEFAULT 'draft',
				price      INTEGER,
				data_json  TEXT,
				buyer_id   TEXT REFERENCES users(id),
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				listed_at  DATETIME,
				sold_at    DATETIME
			);
			CREATE INDEX IF NOT EXISTS idx_artworks_user_id ON artworks(user_id);
			CREATE INDEX IF NOT EXISTS idx_artworks_status ON artworks(status);
		`},
		{"transactions", `
			CREATE TABLE IF NOT EXISTS transactions (
				id         TEXT PRIMARY KEY,
				artwork_id TEXT NOT NULL REFERENCES artworks(id),
				seller_id  TEXT NOT NULL REFERENCES users(id),
				buyer_id   TEXT NOT NULL REFERENCES users(id),
				price      INTEGER NOT NULL,
				created_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_transactions_artwork_id ON transactions(artwork_id);
		`},
		{"checkins", `
			CREATE TABLE IF NOT EXISTS checkins (
				user_id        TEXT NOT NULL REFERENCES users(id),
				day            TEXT NOT NULL,
				granted_common INTEGER NOT NULL DEFAULT 0,
				granted_rare   INTEGER NOT NULL DEFAULT 0,
				created_at     DATETIME NOT NULL,
				PRIMARY KEY (user_id, day)
			);
		`},
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(context.Background(), stmt.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", stmt.name, err)
		}
	}
	return nil
}
