// Package sqlite provides the public API for the SQLite stockcount store.
// This package exposes the factory functions for creating SQLite stores
// while keeping implementation details internal.
package sqlite

import (
	"context"

	"github.com/mesh-intelligence/stockcount/internal/sqlite"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// DatabaseFileName is the file the store creates inside Config.DataDir.
const DatabaseFileName = sqlite.DatabaseFileName

// DemoSeeder is implemented by stores that can fill an empty database with
// sample branches, products and counts.
type DemoSeeder interface {
	SeedDemo(ctx context.Context) (bool, error)
}

// NewBackend creates a new SQLite store.
// The store is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".stockcount-db",
//	})
//	defer store.Detach()
func NewBackend() types.Store {
	return sqlite.NewBackend()
}

// Open creates a store and attaches it with config.
func Open(config types.Config) (types.Store, error) {
	store := sqlite.NewBackend()
	if err := store.Attach(config); err != nil {
		return nil, err
	}
	return store, nil
}
