// Package sqlite implements the SQLite storage adapter for stockcount.
package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// Schema DDL. Every statement is idempotent so EnsureSchema can run on
// every attach and again after a missing-table failure.
const (
	createBranches = `CREATE TABLE IF NOT EXISTS branches (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    location TEXT NOT NULL
);`

	createProducts = `CREATE TABLE IF NOT EXISTS products (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL
);`

	createInventory = `CREATE TABLE IF NOT EXISTS inventory (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL,
    description TEXT NOT NULL,
    physicalCount INTEGER NOT NULL DEFAULT 0 CHECK (physicalCount >= 0),
    systemCount INTEGER NOT NULL DEFAULT 0 CHECK (systemCount >= 0),
    unitType TEXT NOT NULL DEFAULT 'units' CHECK (unitType IN ('units', 'cases')),
    branchId TEXT NOT NULL REFERENCES branches(id) ON DELETE CASCADE,
    lastUpdated TEXT
);`
)

// Index DDL. The unique (branchId, code) index enforces one row per
// (branch, product) pairing.
const (
	idxInventoryBranchCode = `CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_branch_code ON inventory(branchId, code);`
	idxInventoryCode       = `CREATE INDEX IF NOT EXISTS idx_inventory_code ON inventory(code);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createBranches,
	createProducts,
	createInventory,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxInventoryBranchCode,
	idxInventoryCode,
}

// EnsureSchema creates the tables and indexes if they are absent. Existing
// tables are left unchanged.
func (b *Backend) EnsureSchema(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	return b.ensureSchemaLocked(ctx)
}

// ensureSchemaLocked runs the DDL in one transaction. The caller must hold
// b.mu (read or write).
func (b *Backend) ensureSchemaLocked(ctx context.Context) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}
