package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// CreateBranch inserts a branch and, in the same transaction, one zero-count
// inventory row for every product that exists at that moment.
func (b *Backend) CreateBranch(ctx context.Context, name, location string) (*types.BranchResult, error) {
	branch := types.Branch{Name: name, Location: location}
	branch.Normalize()
	if branch.Name == "" {
		return nil, types.NewValidationError("branch name is required")
	}

	var result *types.BranchResult
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		branch.ID = generateID()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO branches (id, name, location) VALUES (?, ?, ?)",
			branch.ID, branch.Name, branch.Location,
		); err != nil {
			return fmt.Errorf("inserting branch: %w", err)
		}

		products, err := allProducts(ctx, tx)
		if err != nil {
			return err
		}
		items, err := fanOut(ctx, tx, []string{branch.ID}, products)
		if err != nil {
			return err
		}
		result = &types.BranchResult{Branch: branch, Inventory: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteBranch removes the branch and every inventory row with its id. The
// explicit row delete keeps the pair atomic even if the foreign key cascade
// is not active on the connection. Unknown ids are a no-op.
func (b *Backend) DeleteBranch(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM inventory WHERE branchId = ?", id); err != nil {
			return fmt.Errorf("deleting branch inventory: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM branches WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting branch: %w", err)
		}
		return nil
	})
}
