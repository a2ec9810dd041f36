package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// CreateProduct inserts a product and one zero-count inventory row per
// existing branch. The code is checked before insert; a UNIQUE violation
// raised by a concurrent writer maps to the same ErrDuplicateCode.
func (b *Backend) CreateProduct(ctx context.Context, code, description string) (*types.ProductResult, error) {
	p := types.Product{Code: code, Description: description}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.Normalize()

	var result *types.ProductResult
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := productByCode(ctx, tx, p.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return types.ErrDuplicateCode
		}

		p.ID = generateID()
		if err := insertProduct(ctx, tx, p); err != nil {
			return err
		}

		branches, err := branchIDs(ctx, tx)
		if err != nil {
			return err
		}
		items, err := fanOut(ctx, tx, branches, []types.Product{p})
		if err != nil {
			return err
		}
		result = &types.ProductResult{Products: []types.Product{p}, Inventory: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateProducts bulk-creates products in one transaction. Rows missing a
// code or description, rows whose code already exists in the catalog, and
// repeats of a code earlier in the same batch are dropped without error:
// a bulk import never overwrites. The result may be empty.
func (b *Backend) CreateProducts(ctx context.Context, rows []types.ProductInput) (*types.ProductResult, error) {
	var result *types.ProductResult
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		var codes []string
		if err := tx.SelectContext(ctx, &codes, "SELECT code FROM products"); err != nil {
			return fmt.Errorf("listing product codes: %w", err)
		}
		seen := make(map[string]bool, len(codes)+len(rows))
		for _, c := range codes {
			seen[c] = true
		}

		var created []types.Product
		for _, row := range rows {
			p := types.Product{Code: row.Code, Description: row.Description}
			p.Normalize()
			if p.Code == "" || p.Description == "" || seen[p.Code] {
				continue
			}
			seen[p.Code] = true
			p.ID = generateID()
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
			created = append(created, p)
		}

		branches, err := branchIDs(ctx, tx)
		if err != nil {
			return err
		}
		items, err := fanOut(ctx, tx, branches, created)
		if err != nil {
			return err
		}
		if created == nil {
			created = []types.Product{}
		}
		result = &types.ProductResult{Products: created, Inventory: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateProduct rewrites code and description of the product with
// product.ID and, in the same transaction, carries both onto every
// inventory row that held the old code. Returns the rewritten rows.
func (b *Backend) UpdateProduct(ctx context.Context, product types.Product) ([]types.InventoryItem, error) {
	if product.ID == "" {
		return nil, types.ErrInvalidID
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	product.Normalize()

	var items []types.InventoryItem
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		var old types.Product
		err := tx.GetContext(ctx, &old, "SELECT id, code, description FROM products WHERE id = ?", product.ID)
		if err == sql.ErrNoRows {
			items = []types.InventoryItem{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting product %s: %w", product.ID, err)
		}

		owner, err := productByCode(ctx, tx, product.Code)
		if err != nil {
			return err
		}
		if owner != nil && owner.ID != product.ID {
			return types.ErrDuplicateCode
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET code = ?, description = ? WHERE id = ?",
			product.Code, product.Description, product.ID,
		); err != nil {
			if isUniqueViolation(err) {
				return types.ErrDuplicateCode
			}
			return fmt.Errorf("updating product: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE inventory SET code = ?, description = ? WHERE code = ?",
			product.Code, product.Description, old.Code,
		); err != nil {
			return fmt.Errorf("propagating product rename: %w", err)
		}

		items, err = selectItems(ctx, tx, "code = ?", product.Code)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteProduct removes the product and every inventory row sharing its
// code. Unknown ids are a no-op.
func (b *Backend) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.inTx(ctx, func(tx *sqlx.Tx) error {
		var code string
		err := tx.GetContext(ctx, &code, "SELECT code FROM products WHERE id = ?", id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("getting product %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM inventory WHERE code = ?", code); err != nil {
			return fmt.Errorf("deleting product inventory: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting product: %w", err)
		}
		return nil
	})
}

func insertProduct(ctx context.Context, tx *sqlx.Tx, p types.Product) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO products (id, code, description) VALUES (?, ?, ?)",
		p.ID, p.Code, p.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.ErrDuplicateCode
		}
		return fmt.Errorf("inserting product %s: %w", p.Code, err)
	}
	return nil
}
