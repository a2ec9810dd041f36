package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// DatabaseFileName is the SQLite file created inside Config.DataDir.
const DatabaseFileName = "stockcount.db"

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on a SQLite database file. The database is
// the source of truth; nothing is cached in memory.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB

	// now is the clock used for lastUpdated stamps. Tests replace it.
	now func() time.Time
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, opens the database with foreign
// keys enforced and bootstraps the schema.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	db, err := sqlx.Open("sqlite", dsn(filepath.Join(dataDir, DatabaseFileName)))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}

	b.db = db
	b.config = config

	if err := b.ensureSchemaLocked(context.Background()); err != nil {
		db.Close()
		b.db = nil
		return err
	}

	b.attached = true
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrStoreDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// dsn builds the modernc connection string. Pragmas are applied per
// connection, so every pooled connection enforces foreign keys.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// generateID generates a new UUID v7 for entity IDs.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// inTx runs fn inside one transaction while holding the read lock, so
// Detach waits for in-flight operations. If fn fails because a table is
// missing, the schema is bootstrapped and fn runs exactly once more. Any
// error from fn rolls the transaction back.
func (b *Backend) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	err := b.runTx(ctx, fn)
	if err != nil && isMissingTable(err) {
		if serr := b.ensureSchemaLocked(ctx); serr != nil {
			return fmt.Errorf("bootstrapping schema after %v: %w", err, serr)
		}
		err = b.runTx(ctx, fn)
	}
	return err
}

// inReadTx is inTx for reads. The transaction is read-only, so the driver
// opens it deferred instead of taking the write lock, and under WAL it does
// not wait for writers.
func (b *Backend) inReadTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	opts := &sql.TxOptions{ReadOnly: true}
	err := b.runTxOpts(ctx, opts, fn)
	if err != nil && isMissingTable(err) {
		if serr := b.ensureSchemaLocked(ctx); serr != nil {
			return fmt.Errorf("bootstrapping schema after %v: %w", err, serr)
		}
		err = b.runTxOpts(ctx, opts, fn)
	}
	return err
}

func (b *Backend) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return b.runTxOpts(ctx, nil, fn)
}

func (b *Backend) runTxOpts(ctx context.Context, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// stamp formats the current time for the lastUpdated column.
func (b *Backend) stamp() (time.Time, string) {
	t := b.now()
	return t, t.Format(time.RFC3339Nano)
}
