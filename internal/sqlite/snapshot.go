package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// FetchAll reads all three tables inside one read-only transaction so the
// snapshot is consistent and does not queue behind writers. Branches come back in creation order, products by code,
// inventory by branch then code.
func (b *Backend) FetchAll(ctx context.Context) (*types.Snapshot, error) {
	snap := &types.Snapshot{}
	err := b.inReadTx(ctx, func(tx *sqlx.Tx) error {
		snap.Branches = []types.Branch{}
		if err := tx.SelectContext(ctx, &snap.Branches,
			"SELECT id, name, COALESCE(location, '') AS location FROM branches ORDER BY rowid"); err != nil {
			return fmt.Errorf("reading branches: %w", err)
		}

		products, err := allProducts(ctx, tx)
		if err != nil {
			return err
		}
		if products == nil {
			products = []types.Product{}
		}
		snap.Products = products

		snap.Inventory, err = selectItems(ctx, tx, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
