package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// RecordCount writes both counts of one inventory row and stamps
// lastUpdated. Concurrent calls on the same row resolve last writer wins.
// Returns ErrNotFound when no row has itemID; nothing is written then.
func (b *Backend) RecordCount(ctx context.Context, itemID string, physical, system int) (*types.InventoryItem, error) {
	if itemID == "" {
		return nil, types.ErrInvalidID
	}
	if err := types.ValidateCounts(physical, system); err != nil {
		return nil, err
	}

	var item *types.InventoryItem
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		_, ts := b.stamp()
		res, err := tx.ExecContext(ctx,
			"UPDATE inventory SET physicalCount = ?, systemCount = ?, lastUpdated = ? WHERE id = ?",
			physical, system, ts, itemID,
		)
		if err != nil {
			return fmt.Errorf("recording count: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("recording count: %w", err)
		}
		if n == 0 {
			return types.ErrNotFound
		}
		item, err = getItem(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ApplyCounts writes a parsed batch onto the rows of branchID in one
// transaction. An unknown branch is ErrNotFound. Codes are matched after normalization; updates with no
// matching row or with negative counts are skipped. When nothing matches,
// the result still carries the skip count and the error is ErrNoValidRows.
func (b *Backend) ApplyCounts(ctx context.Context, branchID string, updates []types.CountUpdate) (*types.ImportResult, error) {
	if branchID == "" {
		return nil, types.ErrInvalidID
	}

	result := &types.ImportResult{Updated: []types.InventoryItem{}}
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		result.Updated = result.Updated[:0]
		result.Skipped = 0

		if err := requireBranch(ctx, tx, branchID); err != nil {
			return err
		}

		rows, err := selectItems(ctx, tx, "branchId = ?", branchID)
		if err != nil {
			return err
		}
		byCode := make(map[string]types.InventoryItem, len(rows))
		for _, r := range rows {
			byCode[r.Code] = r
		}

		stmt, err := tx.PreparexContext(ctx,
			"UPDATE inventory SET physicalCount = ?, systemCount = ?, lastUpdated = ? WHERE id = ?")
		if err != nil {
			return fmt.Errorf("preparing count update: %w", err)
		}
		defer stmt.Close()

		now, ts := b.stamp()
		for _, u := range updates {
			item, ok := byCode[types.NormalizeText(u.Code)]
			if !ok {
				result.Skipped++
				continue
			}
			system := item.SystemCount
			if u.SystemCount != nil {
				system = *u.SystemCount
			}
			if types.ValidateCounts(u.PhysicalCount, system) != nil {
				result.Skipped++
				continue
			}
			if _, err := stmt.ExecContext(ctx, u.PhysicalCount, system, ts, item.ID); err != nil {
				return fmt.Errorf("applying count for %s: %w", item.Code, err)
			}
			item.PhysicalCount = u.PhysicalCount
			item.SystemCount = system
			stampedAt := now
			item.LastUpdated = &stampedAt
			result.Updated = append(result.Updated, item)
		}

		if len(result.Updated) == 0 {
			return types.ErrNoValidRows
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrNoValidRows) {
			return result, err
		}
		return nil, err
	}
	return result, nil
}

// AdmitItem records counts and unit type for the (branch, code) pair of in.
// When the code is new the product is created and fanned out to every
// branch first, in the same transaction. An existing product keeps its
// description.
func (b *Backend) AdmitItem(ctx context.Context, in types.ItemInput) (*types.AdmitResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	code := types.NormalizeText(in.Code)
	description := types.NormalizeText(in.Description)

	var result *types.AdmitResult
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := requireBranch(ctx, tx, in.BranchID); err != nil {
			return err
		}

		result = &types.AdmitResult{}
		product, err := productByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if product == nil {
			p := types.Product{ID: generateID(), Code: code, Description: description}
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
			branches, err := branchIDs(ctx, tx)
			if err != nil {
				return err
			}
			if result.Inventory, err = fanOut(ctx, tx, branches, []types.Product{p}); err != nil {
				return err
			}
			result.Product = &p
			product = &p
		}

		rows, err := selectItems(ctx, tx, "branchId = ? AND code = ?", in.BranchID, code)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			// Row lost to an earlier partial import; restore it through
			// fan-out for this branch only.
			if rows, err = fanOut(ctx, tx, []string{in.BranchID}, []types.Product{*product}); err != nil {
				return err
			}
		}

		_, ts := b.stamp()
		if _, err := tx.ExecContext(ctx,
			"UPDATE inventory SET physicalCount = ?, systemCount = ?, unitType = ?, lastUpdated = ? WHERE id = ?",
			in.PhysicalCount, in.SystemCount, in.UnitType, ts, rows[0].ID,
		); err != nil {
			return fmt.Errorf("admitting item %s: %w", code, err)
		}
		item, err := getItem(ctx, tx, rows[0].ID)
		if err != nil {
			return err
		}
		result.Item = *item
		for i := range result.Inventory {
			if result.Inventory[i].ID == item.ID {
				result.Inventory[i] = *item
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
