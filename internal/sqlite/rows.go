package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// inventoryColumns is the column list every inventory SELECT uses, in the
// order inventoryRow declares them.
const inventoryColumns = "id, code, description, physicalCount, systemCount, unitType, branchId, lastUpdated"

// inventoryRow is the SQLite shape of an inventory row. lastUpdated is
// stored as RFC 3339 text and may be NULL.
type inventoryRow struct {
	ID            string         `db:"id"`
	Code          string         `db:"code"`
	Description   string         `db:"description"`
	PhysicalCount int            `db:"physicalCount"`
	SystemCount   int            `db:"systemCount"`
	UnitType      string         `db:"unitType"`
	BranchID      string         `db:"branchId"`
	LastUpdated   sql.NullString `db:"lastUpdated"`
}

// hydrate converts the row into the public entity.
func (r inventoryRow) hydrate() (types.InventoryItem, error) {
	item := types.InventoryItem{
		ID:            r.ID,
		Code:          r.Code,
		Description:   r.Description,
		PhysicalCount: r.PhysicalCount,
		SystemCount:   r.SystemCount,
		UnitType:      r.UnitType,
		BranchID:      r.BranchID,
	}
	if r.LastUpdated.Valid && r.LastUpdated.String != "" {
		t, err := time.Parse(time.RFC3339Nano, r.LastUpdated.String)
		if err != nil {
			return types.InventoryItem{}, fmt.Errorf("parsing lastUpdated of %s: %w", r.ID, err)
		}
		item.LastUpdated = &t
	}
	return item, nil
}

func hydrateAll(rows []inventoryRow) ([]types.InventoryItem, error) {
	items := make([]types.InventoryItem, 0, len(rows))
	for _, r := range rows {
		item, err := r.hydrate()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// selectItems runs an inventory query and hydrates the result.
func selectItems(ctx context.Context, q sqlx.QueryerContext, where string, args ...any) ([]types.InventoryItem, error) {
	var rows []inventoryRow
	query := "SELECT " + inventoryColumns + " FROM inventory"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY branchId, code"
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("selecting inventory: %w", err)
	}
	return hydrateAll(rows)
}

// getItem loads one inventory row by id. Returns ErrNotFound if absent.
func getItem(ctx context.Context, q sqlx.QueryerContext, id string) (*types.InventoryItem, error) {
	var row inventoryRow
	err := sqlx.GetContext(ctx, q, &row, "SELECT "+inventoryColumns+" FROM inventory WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory item %s: %w", id, err)
	}
	item, err := row.hydrate()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// fanOut inserts one zero-count row for every (branch, product) pair given.
// It is the only place inventory rows are created.
func fanOut(ctx context.Context, tx *sqlx.Tx, branchIDs []string, products []types.Product) ([]types.InventoryItem, error) {
	if len(branchIDs) == 0 || len(products) == 0 {
		return []types.InventoryItem{}, nil
	}

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO inventory
		(id, code, description, physicalCount, systemCount, unitType, branchId, lastUpdated)
		VALUES (?, ?, ?, 0, 0, ?, ?, NULL)`)
	if err != nil {
		return nil, fmt.Errorf("preparing fan-out insert: %w", err)
	}
	defer stmt.Close()

	items := make([]types.InventoryItem, 0, len(branchIDs)*len(products))
	for _, p := range products {
		for _, branchID := range branchIDs {
			item := types.InventoryItem{
				ID:          generateID(),
				Code:        p.Code,
				Description: p.Description,
				UnitType:    types.UnitUnits,
				BranchID:    branchID,
			}
			if _, err := stmt.ExecContext(ctx, item.ID, item.Code, item.Description, item.UnitType, item.BranchID); err != nil {
				return nil, fmt.Errorf("fanning out %s to branch %s: %w", p.Code, branchID, err)
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func branchIDs(ctx context.Context, q sqlx.QueryerContext) ([]string, error) {
	var ids []string
	if err := sqlx.SelectContext(ctx, q, &ids, "SELECT id FROM branches ORDER BY rowid"); err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return ids, nil
}

func allProducts(ctx context.Context, q sqlx.QueryerContext) ([]types.Product, error) {
	var products []types.Product
	if err := sqlx.SelectContext(ctx, q, &products, "SELECT id, code, description FROM products ORDER BY code"); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// productByCode returns the product owning code, or nil if none does.
func productByCode(ctx context.Context, q sqlx.QueryerContext, code string) (*types.Product, error) {
	var p types.Product
	err := sqlx.GetContext(ctx, q, &p, "SELECT id, code, description FROM products WHERE code = ?", code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up product %s: %w", code, err)
	}
	return &p, nil
}

// requireBranch returns ErrNotFound unless the branch exists.
func requireBranch(ctx context.Context, q sqlx.QueryerContext, id string) error {
	var exists int
	if err := sqlx.GetContext(ctx, q, &exists, "SELECT COUNT(*) FROM branches WHERE id = ?", id); err != nil {
		return fmt.Errorf("checking branch %s: %w", id, err)
	}
	if exists == 0 {
		return types.ErrNotFound
	}
	return nil
}
