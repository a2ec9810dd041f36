package types

import "context"

// Store is the storage adapter for branches, products and inventory rows.
// Every multi-row mutation runs in a single transaction; partial fan-out is
// never committed. Callers attach once, issue operations, and detach.
type Store interface {
	// Attach opens the backend described by config and bootstraps the
	// schema. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// EnsureSchema creates the tables if absent. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	// CreateBranch inserts a branch and one zero-count inventory row per
	// existing product.
	CreateBranch(ctx context.Context, name, location string) (*BranchResult, error)

	// DeleteBranch removes a branch and all of its inventory rows. Unknown
	// ids are a no-op.
	DeleteBranch(ctx context.Context, id string) error

	// CreateProduct inserts a product and one zero-count inventory row per
	// existing branch. Returns ErrDuplicateCode if the code is taken.
	CreateProduct(ctx context.Context, code, description string) (*ProductResult, error)

	// CreateProducts bulk-creates products, silently dropping rows that are
	// incomplete or whose code already exists.
	CreateProducts(ctx context.Context, rows []ProductInput) (*ProductResult, error)

	// UpdateProduct rewrites a product and propagates code and description
	// to every inventory row that carried the old code. Returns the
	// rewritten rows. Returns ErrDuplicateCode if another product owns the
	// new code. Unknown ids are a no-op.
	UpdateProduct(ctx context.Context, product Product) ([]InventoryItem, error)

	// DeleteProduct removes a product and all inventory rows sharing its
	// code. Unknown ids are a no-op.
	DeleteProduct(ctx context.Context, id string) error

	// RecordCount writes both counts and the last-updated time of one
	// inventory row and returns the updated row. Last writer wins.
	RecordCount(ctx context.Context, itemID string, physical, system int) (*InventoryItem, error)

	// ApplyCounts applies batch count updates to the rows of one branch,
	// matching by code. Unmatched codes are skipped and counted. Returns
	// ErrNoValidRows, with nothing written, when no update matched.
	ApplyCounts(ctx context.Context, branchID string, updates []CountUpdate) (*ImportResult, error)

	// AdmitItem records counts and unit type for a (branch, code) pair,
	// creating the product with full fan-out when the code is new.
	AdmitItem(ctx context.Context, in ItemInput) (*AdmitResult, error)

	// FetchAll returns the full, unfiltered contents of all three tables.
	FetchAll(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the full contents of the store at one point in time.
type Snapshot struct {
	Branches  []Branch        `json:"branches"`
	Products  []Product       `json:"products"`
	Inventory []InventoryItem `json:"inventory"`
}

// BranchResult is a created branch and the inventory rows fanned out for it.
type BranchResult struct {
	Branch    Branch          `json:"branch"`
	Inventory []InventoryItem `json:"inventory"`
}

// ProductResult carries newly created products and their fanned-out rows,
// so callers can update cached state without a refetch.
type ProductResult struct {
	Products  []Product       `json:"products"`
	Inventory []InventoryItem `json:"inventory"`
}

// ImportResult reports a batch count import: "(N updated, M skipped)".
type ImportResult struct {
	Updated []InventoryItem `json:"updated"`
	Skipped int             `json:"skipped"`
}

// AdmitResult is the outcome of admitting a single item. Product is set when
// the code was new and a product was created; Inventory then holds every
// fanned-out row.
type AdmitResult struct {
	Item      InventoryItem   `json:"item"`
	Product   *Product        `json:"product,omitempty"`
	Inventory []InventoryItem `json:"inventory,omitempty"`
}
