// Package inventory is the application service for stockcount. It composes
// the store, the entry validator and the activity log, and logs every
// mutation.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockcount/internal/activity"
	"github.com/mesh-intelligence/stockcount/internal/csvio"
	"github.com/mesh-intelligence/stockcount/internal/validation"
	"github.com/mesh-intelligence/stockcount/internal/view"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// Service runs each use case as one store call plus its side effects.
type Service struct {
	store     types.Store
	validator validation.Validator
	log       *activity.Log
	logger    *zap.Logger
}

// NewService wires a service. A nil validator uses validation.Rules, a nil
// log gets a default-capacity log and a nil logger discards output.
func NewService(store types.Store, validator validation.Validator, log *activity.Log, logger *zap.Logger) *Service {
	if validator == nil {
		validator = validation.Rules{}
	}
	if log == nil {
		log = activity.New(activity.DefaultCapacity)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, validator: validator, log: log, logger: logger}
}

// Snapshot returns the full store contents.
func (s *Service) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	snap, err := s.store.FetchAll(ctx)
	if err != nil {
		s.logger.Error("failed to fetch snapshot", zap.Error(err))
		return nil, err
	}
	return snap, nil
}

// Branch returns the branch with id, or ErrNotFound.
func (s *Service) Branch(ctx context.Context, id string) (*types.Branch, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return findBranch(snap, id)
}

// Inventory lists rows matching q.
func (s *Service) Inventory(ctx context.Context, q view.Query) (view.Page[types.InventoryItem], error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return view.Page[types.InventoryItem]{}, err
	}
	if q.BranchID != "" {
		if _, err := findBranch(snap, q.BranchID); err != nil {
			return view.Page[types.InventoryItem]{}, err
		}
	}
	return view.Inventory(snap.Inventory, q), nil
}

// CreateBranch creates a branch with its fanned-out rows.
func (s *Service) CreateBranch(ctx context.Context, name, location string) (*types.BranchResult, error) {
	res, err := s.store.CreateBranch(ctx, name, location)
	if err != nil {
		s.logFailure("failed to create branch", err, zap.String("name", name))
		return nil, err
	}
	s.logger.Info("branch created",
		zap.String("branch_id", res.Branch.ID),
		zap.String("name", res.Branch.Name),
		zap.Int("rows", len(res.Inventory)),
	)
	return res, nil
}

// DeleteBranch removes a branch and its rows.
func (s *Service) DeleteBranch(ctx context.Context, id string) error {
	if err := s.store.DeleteBranch(ctx, id); err != nil {
		s.logFailure("failed to delete branch", err, zap.String("branch_id", id))
		return err
	}
	s.logger.Info("branch deleted", zap.String("branch_id", id))
	return nil
}

// CreateProduct creates one product with its fanned-out rows.
func (s *Service) CreateProduct(ctx context.Context, code, description string) (*types.ProductResult, error) {
	res, err := s.store.CreateProduct(ctx, code, description)
	if err != nil {
		s.logFailure("failed to create product", err, zap.String("code", code))
		return nil, err
	}
	s.logger.Info("product created",
		zap.String("product_id", res.Products[0].ID),
		zap.String("code", res.Products[0].Code),
		zap.Int("rows", len(res.Inventory)),
	)
	return res, nil
}

// ImportProducts creates every new product listed in a catalog payload.
// Existing codes are left untouched. Returns ErrNoValidRows, with the empty
// result, when the payload adds nothing.
func (s *Service) ImportProducts(ctx context.Context, payload string) (*types.ProductResult, error) {
	rows := csvio.ParseProducts(payload)
	res, err := s.store.CreateProducts(ctx, rows)
	if err != nil {
		s.logFailure("failed to import products", err, zap.Int("lines", len(rows)))
		return nil, err
	}
	s.logger.Info("products imported",
		zap.Int("lines", len(rows)),
		zap.Int("created", len(res.Products)),
		zap.Int("rows", len(res.Inventory)),
	)
	if len(res.Products) == 0 {
		return res, types.ErrNoValidRows
	}
	return res, nil
}

// UpdateProduct renames a product and returns the rewritten rows.
func (s *Service) UpdateProduct(ctx context.Context, product types.Product) ([]types.InventoryItem, error) {
	items, err := s.store.UpdateProduct(ctx, product)
	if err != nil {
		s.logFailure("failed to update product", err, zap.String("product_id", product.ID))
		return nil, err
	}
	s.logger.Info("product updated",
		zap.String("product_id", product.ID),
		zap.Int("rows", len(items)),
	)
	return items, nil
}

// DeleteProduct removes a product and its rows.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		s.logFailure("failed to delete product", err, zap.String("product_id", id))
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// RecordCount writes both counts of one row.
func (s *Service) RecordCount(ctx context.Context, itemID string, physical, system int) (*types.InventoryItem, error) {
	item, err := s.store.RecordCount(ctx, itemID, physical, system)
	if err != nil {
		s.logFailure("failed to record count", err, zap.String("item_id", itemID))
		return nil, err
	}
	s.log.Add(*item, activity.ChangeRecorded)
	s.logger.Info("count recorded",
		zap.String("item_id", item.ID),
		zap.String("code", item.Code),
		zap.Int("physical", item.PhysicalCount),
		zap.Int("system", item.SystemCount),
	)
	return item, nil
}

// ImportCounts parses a count payload and applies it to one branch. The
// skipped total covers both unparseable lines and codes the branch does not
// carry. A payload with no applicable line returns ErrNoValidRows together
// with the result, and nothing is written.
func (s *Service) ImportCounts(ctx context.Context, branchID, payload string, mode csvio.Mode) (*types.ImportResult, error) {
	updates, badLines := csvio.ParseCounts(payload, mode)
	res, err := s.store.ApplyCounts(ctx, branchID, updates)
	if res != nil {
		res.Skipped += badLines
	}
	if err != nil {
		if errors.Is(err, types.ErrNoValidRows) {
			s.logger.Warn("count import applied nothing",
				zap.String("branch_id", branchID),
				zap.Stringer("mode", mode),
				zap.Int("skipped", res.Skipped),
			)
			return res, err
		}
		s.logFailure("failed to import counts", err, zap.String("branch_id", branchID))
		return nil, err
	}
	s.log.AddAll(res.Updated, activity.ChangeImported)
	s.logger.Info("counts imported",
		zap.String("branch_id", branchID),
		zap.Stringer("mode", mode),
		zap.Int("updated", len(res.Updated)),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

// AdmitItem validates an add-form entry locally and with the validator,
// then records it. Validator rejections come back as *types.ValidationError
// carrying the validator's messages; a validator that cannot be reached
// fails the call with nothing written.
func (s *Service) AdmitItem(ctx context.Context, in types.ItemInput) (*types.AdmitResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	branch, err := s.Branch(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}

	verdict, err := s.validator.Validate(ctx, validation.NewRequest(in, branch.Name))
	if err != nil {
		s.logger.Error("validation call failed", zap.String("code", in.Code), zap.Error(err))
		return nil, fmt.Errorf("validating entry: %w", err)
	}
	if !verdict.IsValid {
		s.logger.Info("entry rejected by validator",
			zap.String("code", in.Code),
			zap.Strings("errors", verdict.Errors),
		)
		msgs := verdict.Errors
		if len(msgs) == 0 {
			msgs = []string{"entry rejected"}
		}
		return nil, types.NewValidationError(msgs...)
	}

	res, err := s.store.AdmitItem(ctx, in)
	if err != nil {
		s.logFailure("failed to admit item", err, zap.String("code", in.Code))
		return nil, err
	}
	s.log.Add(res.Item, activity.ChangeAdded)
	s.logger.Info("item admitted",
		zap.String("item_id", res.Item.ID),
		zap.String("code", res.Item.Code),
		zap.String("branch_id", res.Item.BranchID),
		zap.Bool("new_product", res.Product != nil),
	)
	return res, nil
}

// Activity returns the activity log, newest first.
func (s *Service) Activity() []activity.LogEntry {
	return s.log.Entries()
}

// ClearActivity empties the activity log and returns how many entries it
// held.
func (s *Service) ClearActivity() int {
	n := s.log.Len()
	s.log.Clear()
	s.logger.Info("activity cleared", zap.Int("entries", n))
	return n
}

// ExportLog writes the activity log in the log export layout.
func (s *Service) ExportLog(w io.Writer) error {
	return csvio.WriteLog(w, s.log.Items())
}

// ExportTemplate writes the rows of one branch, ordered by code, in the
// catalog template layout.
func (s *Service) ExportTemplate(ctx context.Context, w io.Writer, branchID string) error {
	page, err := s.Inventory(ctx, view.Query{BranchID: branchID, PageSize: -1})
	if err != nil {
		return err
	}
	return csvio.WriteTemplate(w, page.Items)
}

// logFailure logs store failures at Error and caller mistakes at Info.
func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, types.ErrDuplicateCode),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidData):
		s.logger.Info(msg, fields...)
	default:
		s.logger.Error(msg, fields...)
	}
}

func findBranch(snap *types.Snapshot, id string) (*types.Branch, error) {
	for i := range snap.Branches {
		if snap.Branches[i].ID == id {
			return &snap.Branches[i], nil
		}
	}
	return nil, types.ErrNotFound
}
