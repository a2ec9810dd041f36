package inventory

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/stockcount/internal/activity"
	"github.com/mesh-intelligence/stockcount/internal/csvio"
	"github.com/mesh-intelligence/stockcount/internal/validation"
	"github.com/mesh-intelligence/stockcount/internal/view"
	"github.com/mesh-intelligence/stockcount/pkg/sqlite"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// stubValidator returns a fixed verdict and records the last request.
type stubValidator struct {
	result validation.Result
	err    error
	last   *validation.Request
}

func (v *stubValidator) Validate(_ context.Context, req validation.Request) (validation.Result, error) {
	v.last = &req
	return v.result, v.err
}

func setupService(t *testing.T, v validation.Validator) (*Service, *observer.ObservedLogs) {
	t.Helper()

	store, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Detach() })

	core, logs := observer.New(zapcore.DebugLevel)
	return NewService(store, v, activity.New(50), zap.New(core)), logs
}

func TestService_WarehouseScenario(t *testing.T) {
	svc, logs := setupService(t, nil)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "WAREHOUSE", "MAIN ST")
	require.NoError(t, err)
	assert.Empty(t, br.Inventory)

	pr, err := svc.CreateProduct(ctx, "sku-1", "widget")
	require.NoError(t, err)
	require.Len(t, pr.Inventory, 1)
	item := pr.Inventory[0]
	assert.Equal(t, br.Branch.ID, item.BranchID)
	assert.Equal(t, "SKU-1", item.Code)
	assert.Equal(t, "WIDGET", item.Description)
	assert.Equal(t, types.UnitUnits, item.UnitType)

	got, err := svc.RecordCount(ctx, item.ID, 10, 12)
	require.NoError(t, err)
	assert.Equal(t, "-2", types.FormatDiscrepancy(got.Discrepancy()))

	entries := svc.Activity()
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ChangeRecorded, entries[0].Change)

	assert.Equal(t, 1, logs.FilterMessage("count recorded").Len())
	assert.Equal(t, 1, logs.FilterMessage("branch created").Len())

	assert.Equal(t, 1, svc.ClearActivity())
	assert.Empty(t, svc.Activity())
	assert.Zero(t, svc.ClearActivity())
	assert.Equal(t, 2, logs.FilterMessage("activity cleared").Len())
}

func TestService_ImportCountsSelectivity(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "A", "first")
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "B", "second")
	require.NoError(t, err)

	payload := "codigo,fisico\nA,7\nC,3\nthis line is malformed\n"
	res, err := svc.ImportCounts(ctx, br.Branch.ID, payload, csvio.ModePhysical)
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, "A", res.Updated[0].Code)
	assert.Equal(t, 7, res.Updated[0].PhysicalCount)
	assert.Equal(t, 2, res.Skipped)

	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	for _, it := range snap.Inventory {
		if it.Code == "B" {
			assert.Zero(t, it.PhysicalCount)
		}
	}
	require.Len(t, svc.Activity(), 1)
	assert.Equal(t, activity.ChangeImported, svc.Activity()[0].Change)
}

func TestService_ImportCountsNothingApplies(t *testing.T) {
	svc, logs := setupService(t, nil)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "A", "first")
	require.NoError(t, err)

	res, err := svc.ImportCounts(ctx, br.Branch.ID, "Z,1\nbad\n", csvio.ModePhysical)
	assert.ErrorIs(t, err, types.ErrNoValidRows)
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, svc.Activity())
	assert.Equal(t, 1, logs.FilterMessage("count import applied nothing").Len())
}

func TestService_ImportCountsFullMode(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "A", "first")
	require.NoError(t, err)

	res, err := svc.ImportCounts(ctx, br.Branch.ID, "codigo,descripcion,fisico,sistema\nA,FIRST,4,6\n", csvio.ModeFull)
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, 6, res.Updated[0].SystemCount)
}

func TestService_ImportProducts(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)

	res, err := svc.ImportProducts(ctx, "codigo,descripcion\n1001,Coca Cola 2.5L\n1002,Papas Fritas 150g\n")
	require.NoError(t, err)
	assert.Len(t, res.Products, 2)
	assert.Len(t, res.Inventory, 2)

	res, err = svc.ImportProducts(ctx, "1001,Coca Cola 2.5L\n")
	assert.ErrorIs(t, err, types.ErrNoValidRows)
	assert.Empty(t, res.Products)
}

func TestService_AdmitItem(t *testing.T) {
	v := &stubValidator{result: validation.Result{IsValid: true}}
	svc, _ := setupService(t, v)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)

	res, err := svc.AdmitItem(ctx, types.ItemInput{
		Code: "sku-5", Description: "croissants", PhysicalCount: 118, SystemCount: 120,
		UnitType: types.UnitUnits, BranchID: br.Branch.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, -2, res.Item.Discrepancy())
	require.NotNil(t, v.last)
	assert.Equal(t, validation.Request{
		Code: "SKU-5", Description: "CROISSANTS", PhysicalCount: 118, SystemCount: 120, Branch: "MAIN",
	}, *v.last)

	require.Len(t, svc.Activity(), 1)
	assert.Equal(t, activity.ChangeAdded, svc.Activity()[0].Change)
}

func TestService_AdmitItemRejected(t *testing.T) {
	tests := []struct {
		name      string
		validator *stubValidator
		branchID  func(br types.Branch) string
		wantErr   error
		wantMsgs  []string
	}{
		{
			name:      "validator rejects",
			validator: &stubValidator{result: validation.Result{IsValid: false, Errors: []string{"count too high"}}},
			wantErr:   types.ErrInvalidData,
			wantMsgs:  []string{"count too high"},
		},
		{
			name:      "validator unavailable",
			validator: &stubValidator{err: validation.ErrUnavailable},
			wantErr:   validation.ErrUnavailable,
		},
		{
			name:      "unknown branch",
			validator: &stubValidator{result: validation.Result{IsValid: true}},
			branchID:  func(types.Branch) string { return "missing" },
			wantErr:   types.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupService(t, tt.validator)
			ctx := context.Background()

			br, err := svc.CreateBranch(ctx, "main", "")
			require.NoError(t, err)
			branchID := br.Branch.ID
			if tt.branchID != nil {
				branchID = tt.branchID(br.Branch)
			}

			_, err = svc.AdmitItem(ctx, types.ItemInput{
				Code: "x", Description: "y", UnitType: types.UnitCases, BranchID: branchID,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsgs != nil {
				var verr *types.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.wantMsgs, verr.Messages)
			}

			snap, err := svc.Snapshot(ctx)
			require.NoError(t, err)
			assert.Empty(t, snap.Products, "rejected entries write nothing")
			assert.Empty(t, svc.Activity())
		})
	}
}

func TestService_AdmitItemLocalValidationSkipsValidator(t *testing.T) {
	v := &stubValidator{result: validation.Result{IsValid: true}}
	svc, _ := setupService(t, v)

	_, err := svc.AdmitItem(context.Background(), types.ItemInput{PhysicalCount: -1})
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Messages, "physical count must not be negative")
	assert.Nil(t, v.last)
}

func TestService_Exports(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "B", "second")
	require.NoError(t, err)
	pr, err := svc.CreateProduct(ctx, "A", "first, with comma")
	require.NoError(t, err)
	_, err = svc.RecordCount(ctx, pr.Inventory[0].ID, 10, 12)
	require.NoError(t, err)

	var tmpl bytes.Buffer
	require.NoError(t, svc.ExportTemplate(ctx, &tmpl, br.Branch.ID))
	assert.Equal(t,
		"codigo,descripcion,fisico,sistema\nA,\"FIRST, WITH COMMA\",10,12\nB,SECOND,0,0\n",
		tmpl.String())

	var logBuf bytes.Buffer
	require.NoError(t, svc.ExportLog(&logBuf))
	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "código,descripción,físico,sistema,diferencia", lines[0])
	assert.Equal(t, `A,"FIRST, WITH COMMA",10,12,-2`, lines[1])

	assert.ErrorIs(t, svc.ExportTemplate(ctx, &tmpl, "missing"), types.ErrNotFound)
}

func TestService_InventoryQuery(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	br, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)
	_, err = svc.CreateBranch(ctx, "other", "")
	require.NoError(t, err)
	_, err = svc.ImportProducts(ctx, "A,arroz\nB,harina\nC,arroz integral\n")
	require.NoError(t, err)

	page, err := svc.Inventory(ctx, view.Query{BranchID: br.Branch.ID, Search: "ARROZ"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	_, err = svc.Inventory(ctx, view.Query{BranchID: "missing"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestService_DuplicateLoggedAtInfo(t *testing.T) {
	svc, logs := setupService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, "A", "x")
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, "a", "y")
	assert.ErrorIs(t, err, types.ErrDuplicateCode)

	failures := logs.FilterMessage("failed to create product").All()
	require.Len(t, failures, 1)
	assert.Equal(t, zapcore.InfoLevel, failures[0].Level)
}

func TestService_RenameAndDelete(t *testing.T) {
	svc, _ := setupService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateBranch(ctx, "main", "")
	require.NoError(t, err)
	pr, err := svc.CreateProduct(ctx, "A", "old")
	require.NoError(t, err)

	p := pr.Products[0]
	p.Code = "Z"
	items, err := svc.UpdateProduct(ctx, p)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Z", items[0].Code)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	require.NoError(t, svc.DeleteBranch(ctx, "missing"))
	snap, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Inventory)
}
