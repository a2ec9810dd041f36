package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/stockcount/internal/activity"
	"github.com/mesh-intelligence/stockcount/internal/inventory"
	"github.com/mesh-intelligence/stockcount/internal/validation"
	"github.com/mesh-intelligence/stockcount/internal/view"
	"github.com/mesh-intelligence/stockcount/pkg/sqlite"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

type fixedValidator struct {
	result validation.Result
	err    error
}

func (v fixedValidator) Validate(context.Context, validation.Request) (validation.Result, error) {
	return v.result, v.err
}

func setupApp(t *testing.T, v validation.Validator) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()

	store, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { store.Detach() })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	svc := inventory.NewService(store, v, activity.New(100), logger)
	return New(svc, Options{Logger: logger}), logs
}

// do sends a request and decodes a JSON response into out when out is
// non-nil. It returns the response status and raw body.
func do(t *testing.T, app *fiber.App, method, path string, body any, out any) (int, string) {
	t.Helper()

	var r io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
		contentType = "text/csv"
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
		contentType = fiber.MIMEApplicationJSON
	}

	req := httptest.NewRequest(method, path, r)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode, string(raw)
}

func createBranch(t *testing.T, app *fiber.App, name string) types.BranchResult {
	t.Helper()
	var res types.BranchResult
	status, _ := do(t, app, http.MethodPost, "/api/branches", branchRequest{Name: name, Location: "main st"}, &res)
	require.Equal(t, http.StatusCreated, status)
	return res
}

func createProduct(t *testing.T, app *fiber.App, code, desc string) types.ProductResult {
	t.Helper()
	var res types.ProductResult
	status, _ := do(t, app, http.MethodPost, "/api/products", productRequest{Code: code, Description: desc}, &res)
	require.Equal(t, http.StatusCreated, status)
	return res
}

func TestHealth(t *testing.T) {
	app, _ := setupApp(t, nil)
	var body map[string]string
	status, _ := do(t, app, http.MethodGet, "/api/health", nil, &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRequestLogGoesToZap(t *testing.T) {
	app, logs := setupApp(t, nil)
	do(t, app, http.MethodGet, "/api/health", nil, nil)

	entries := logs.FilterMessageSnippet("/api/health").All()
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[0].Message, "200 GET")
}

func TestBranchAndProductFlow(t *testing.T) {
	app, _ := setupApp(t, nil)

	br := createBranch(t, app, "warehouse")
	assert.Equal(t, "WAREHOUSE", br.Branch.Name)
	assert.Equal(t, "MAIN ST", br.Branch.Location)
	assert.Empty(t, br.Inventory)

	pr := createProduct(t, app, "sku-1", "widget")
	require.Len(t, pr.Inventory, 1)
	item := pr.Inventory[0]

	var counted types.InventoryItem
	status, _ := do(t, app, http.MethodPut, "/api/inventory/"+item.ID+"/count",
		map[string]int{"physicalCount": 10, "systemCount": 12}, &counted)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, -2, counted.Discrepancy())
	assert.NotNil(t, counted.LastUpdated)

	var snap types.Snapshot
	status, _ = do(t, app, http.MethodGet, "/api/snapshot", nil, &snap)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, snap.Branches, 1)
	assert.Len(t, snap.Products, 1)
	require.Len(t, snap.Inventory, 1)
	assert.Equal(t, 10, snap.Inventory[0].PhysicalCount)

	var page view.Page[types.InventoryItem]
	status, _ = do(t, app, http.MethodGet, "/api/branches/"+br.Branch.ID+"/inventory?search=widg", nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, page.Total)

	page = view.Page[types.InventoryItem]{}
	status, _ = do(t, app, http.MethodGet, "/api/branches/"+br.Branch.ID+"/inventory?pageSize=9223372036854775807", nil, &page)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, page.Pages)
	assert.Len(t, page.Items, 1)

	var entries []activity.LogEntry
	status, _ = do(t, app, http.MethodGet, "/api/activity", nil, &entries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.ChangeRecorded, entries[0].Change)

	status, body := do(t, app, http.MethodGet, "/api/activity.csv", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "código,descripción,físico,sistema,diferencia\nSKU-1,WIDGET,10,12,-2\n", body)

	var cleared map[string]int
	status, _ = do(t, app, http.MethodDelete, "/api/activity", nil, &cleared)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, cleared["cleared"])

	entries = nil
	do(t, app, http.MethodGet, "/api/activity", nil, &entries)
	assert.Empty(t, entries)
}

func TestErrorMapping(t *testing.T) {
	app, _ := setupApp(t, nil)
	br := createBranch(t, app, "main")
	pr := createProduct(t, app, "A", "first")
	createProduct(t, app, "B", "second")

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"duplicate code on create", http.MethodPost, "/api/products", productRequest{Code: "a", Description: "x"}, http.StatusConflict},
		{"duplicate code on update", http.MethodPut, "/api/products/" + pr.Products[0].ID, productRequest{Code: "B", Description: "x"}, http.StatusConflict},
		{"missing product fields", http.MethodPost, "/api/products", productRequest{}, http.StatusUnprocessableEntity},
		{"negative count", http.MethodPut, "/api/inventory/" + pr.Inventory[0].ID + "/count", map[string]int{"physicalCount": -1, "systemCount": 0}, http.StatusUnprocessableEntity},
		{"missing count field", http.MethodPut, "/api/inventory/" + pr.Inventory[0].ID + "/count", map[string]int{"physicalCount": 1}, http.StatusUnprocessableEntity},
		{"unknown inventory row", http.MethodPut, "/api/inventory/missing/count", map[string]int{"physicalCount": 1, "systemCount": 1}, http.StatusNotFound},
		{"unknown branch listing", http.MethodGet, "/api/branches/missing/inventory", nil, http.StatusNotFound},
		{"unknown branch import", http.MethodPost, "/api/branches/missing/counts/import", "A,1", http.StatusNotFound},
		{"bad sort key", http.MethodGet, "/api/branches/" + br.Branch.ID + "/inventory?sort=price", nil, http.StatusBadRequest},
		{"bad import mode", http.MethodPost, "/api/branches/" + br.Branch.ID + "/counts/import?mode=x", "A,1", http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/branches", "{", http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nowhere", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			status, raw := do(t, app, tt.method, tt.path, tt.body, &body)
			assert.Equal(t, tt.wantStatus, status, raw)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestValidationErrorsListed(t *testing.T) {
	app, _ := setupApp(t, nil)

	var body errorBody
	status, _ := do(t, app, http.MethodPost, "/api/products", productRequest{}, &body)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, []string{"code is required", "description is required"}, body.Errors)
}

func TestDeletes(t *testing.T) {
	app, _ := setupApp(t, nil)
	br := createBranch(t, app, "main")
	pr := createProduct(t, app, "A", "first")

	status, _ := do(t, app, http.MethodDelete, "/api/products/"+pr.Products[0].ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, app, http.MethodDelete, "/api/branches/"+br.Branch.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = do(t, app, http.MethodDelete, "/api/branches/"+br.Branch.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, status, "deleting twice is a no-op")

	var snap types.Snapshot
	do(t, app, http.MethodGet, "/api/snapshot", nil, &snap)
	assert.Empty(t, snap.Branches)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.Inventory)
}

func TestUpdateProduct(t *testing.T) {
	app, _ := setupApp(t, nil)
	createBranch(t, app, "one")
	createBranch(t, app, "two")
	pr := createProduct(t, app, "A", "first")

	var res updateProductResponse
	status, _ := do(t, app, http.MethodPut, "/api/products/"+pr.Products[0].ID, productRequest{Code: "z", Description: "renamed"}, &res)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, res.Inventory, 2)
	for _, it := range res.Inventory {
		assert.Equal(t, "Z", it.Code)
		assert.Equal(t, "RENAMED", it.Description)
	}
}

func TestImportCounts(t *testing.T) {
	app, _ := setupApp(t, nil)
	br := createBranch(t, app, "main")
	createProduct(t, app, "A", "first")
	createProduct(t, app, "B", "second")

	var res importResponse
	status, _ := do(t, app, http.MethodPost, "/api/branches/"+br.Branch.ID+"/counts/import",
		"codigo,fisico\nA,7\nC,3\nmalformed\n", &res)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, "A", res.Updated[0].Code)
	assert.Equal(t, 2, res.Skipped)

	res = importResponse{}
	status, _ = do(t, app, http.MethodPost, "/api/branches/"+br.Branch.ID+"/counts/import?mode=full",
		"Z,1,1\n", &res)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, 1, res.Skipped)
	assert.NotEmpty(t, res.Error)
}

func TestImportCounts_Multipart(t *testing.T) {
	app, _ := setupApp(t, nil)
	br := createBranch(t, app, "main")
	createProduct(t, app, "A", "first")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "counts.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("A;4;5\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/branches/"+br.Branch.ID+"/counts/import?mode=full", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res importResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Updated, 1)
	assert.Equal(t, 5, res.Updated[0].SystemCount)
}

func TestImportProductsAndTemplate(t *testing.T) {
	app, _ := setupApp(t, nil)
	br := createBranch(t, app, "main")

	var res types.ProductResult
	status, _ := do(t, app, http.MethodPost, "/api/products/import", "codigo,descripcion\n2,beta\n1,alpha\n", &res)
	require.Equal(t, http.StatusCreated, status)
	assert.Len(t, res.Products, 2)

	status, _ = do(t, app, http.MethodPost, "/api/products/import", "1,alpha\n", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	req := httptest.NewRequest(http.MethodGet, "/api/branches/"+br.Branch.ID+"/template.csv", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "codigo,descripcion,fisico,sistema\n1,ALPHA,0,0\n2,BETA,0,0\n", string(data))

	status, _ = do(t, app, http.MethodGet, "/api/branches/missing/template.csv", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAdmitItem(t *testing.T) {
	tests := []struct {
		name       string
		validator  validation.Validator
		wantStatus int
	}{
		{"accepted", fixedValidator{result: validation.Result{IsValid: true}}, http.StatusCreated},
		{"rejected", fixedValidator{result: validation.Result{Errors: []string{"suspicious count"}}}, http.StatusUnprocessableEntity},
		{"validator down", fixedValidator{err: validation.ErrUnavailable}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupApp(t, tt.validator)
			br := createBranch(t, app, "main")

			in := types.ItemInput{
				Code: "sku-9", Description: "crate", PhysicalCount: 2, SystemCount: 3,
				UnitType: types.UnitCases, BranchID: br.Branch.ID,
			}
			var res types.AdmitResult
			status, raw := do(t, app, http.MethodPost, "/api/inventory", in, &res)
			require.Equal(t, tt.wantStatus, status, raw)
			if status == http.StatusCreated {
				assert.Equal(t, "SKU-9", res.Item.Code)
				assert.Equal(t, types.UnitCases, res.Item.UnitType)
				require.NotNil(t, res.Product)
			}
		})
	}
}

func TestCORSOrigins(t *testing.T) {
	assert.Equal(t, "*", corsOrigins(""))
	assert.Equal(t, "http://a,http://b", corsOrigins(" http://a , ,http://b"))
}

func TestPanicRecovered(t *testing.T) {
	app, logs := setupApp(t, nil)
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	status, _ := do(t, app, http.MethodGet, "/boom", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 1, logs.FilterMessage("unexpected error").Len())
}
