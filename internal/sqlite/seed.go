package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// demoBranch and demoItem describe the sample data written by SeedDemo.
type demoBranch struct {
	name     string
	location string
}

type demoItem struct {
	code        string
	description string
	physical    int
	system      int
	unitType    string
	branch      int // index into demoBranches
}

var demoBranches = []demoBranch{
	{"Almacén Principal", "Bodega Norte"},
	{"Tienda Central", "Centro"},
	{"Tienda Oeste", "Zona Oeste"},
}

var demoItems = []demoItem{
	{"SKU-001", "Granos de Café Premium", 95, 100, types.UnitCases, 0},
	{"SKU-002", "Té Verde Orgánico", 250, 250, types.UnitUnits, 1},
	{"SKU-003", "Barra de Chocolate Artesanal", 480, 500, types.UnitUnits, 0},
	{"SKU-004", "Paquete de 12 Aguas Minerales", 75, 75, types.UnitCases, 2},
	{"SKU-005", "Croissants Frescos", 118, 120, types.UnitUnits, 1},
}

// SeedDemo fills an empty database with sample branches and products, fanned
// out like any other create, and records counts on a few rows. It does
// nothing and reports false when any branch or product already exists.
func (b *Backend) SeedDemo(ctx context.Context) (bool, error) {
	seeded := false
	err := b.inTx(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count,
			"SELECT (SELECT COUNT(*) FROM branches) + (SELECT COUNT(*) FROM products)"); err != nil {
			return fmt.Errorf("checking for existing data: %w", err)
		}
		if count > 0 {
			return nil
		}

		ids := make([]string, 0, len(demoBranches))
		for _, d := range demoBranches {
			br := types.Branch{ID: generateID(), Name: d.name, Location: d.location}
			br.Normalize()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO branches (id, name, location) VALUES (?, ?, ?)",
				br.ID, br.Name, br.Location,
			); err != nil {
				return fmt.Errorf("seeding branch %s: %w", br.Name, err)
			}
			ids = append(ids, br.ID)
		}

		products := make([]types.Product, 0, len(demoItems))
		for _, it := range demoItems {
			p := types.Product{ID: generateID(), Code: it.code, Description: it.description}
			p.Normalize()
			if err := insertProduct(ctx, tx, p); err != nil {
				return err
			}
			products = append(products, p)
		}
		if _, err := fanOut(ctx, tx, ids, products); err != nil {
			return err
		}

		_, ts := b.stamp()
		for i, it := range demoItems {
			if _, err := tx.ExecContext(ctx,
				`UPDATE inventory SET physicalCount = ?, systemCount = ?, unitType = ?, lastUpdated = ?
				WHERE branchId = ? AND code = ?`,
				it.physical, it.system, it.unitType, ts, ids[it.branch], products[i].Code,
			); err != nil {
				return fmt.Errorf("seeding counts for %s: %w", products[i].Code, err)
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}
