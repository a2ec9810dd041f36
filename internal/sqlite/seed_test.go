package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDemo(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, b *Backend)
		wantSeeded bool
		check      func(t *testing.T, b *Backend)
	}{
		{
			name:       "seeds an empty database",
			wantSeeded: true,
			check: func(t *testing.T, b *Backend) {
				snap, err := b.FetchAll(context.Background())
				require.NoError(t, err)
				assert.Len(t, snap.Branches, len(demoBranches))
				assert.Len(t, snap.Products, len(demoItems))
				assert.Len(t, snap.Inventory, len(demoBranches)*len(demoItems))

				var counted int
				for _, item := range snap.Inventory {
					if item.LastUpdated != nil {
						counted++
					}
					if item.Code == "SKU-001" && item.PhysicalCount == 95 {
						assert.Equal(t, -5, item.Discrepancy())
					}
				}
				assert.Equal(t, len(demoItems), counted)
			},
		},
		{
			name: "leaves existing data alone",
			setup: func(t *testing.T, b *Backend) {
				_, err := b.CreateProduct(context.Background(), "mine", "own product")
				require.NoError(t, err)
			},
			wantSeeded: false,
			check: func(t *testing.T, b *Backend) {
				snap, err := b.FetchAll(context.Background())
				require.NoError(t, err)
				assert.Len(t, snap.Products, 1)
				assert.Empty(t, snap.Branches)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := setupBackend(t)
			if tt.setup != nil {
				tt.setup(t, b)
			}
			seeded, err := b.SeedDemo(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSeeded, seeded)
			tt.check(t, b)

			again, err := b.SeedDemo(context.Background())
			require.NoError(t, err)
			assert.False(t, again, "seeding twice is a no-op")
		})
	}
}
