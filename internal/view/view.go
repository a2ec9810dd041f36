// Package view filters, searches, sorts and paginates snapshot data for
// display. It works on in-memory slices only; the store is never queried.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// DefaultPageSize applies when a query leaves PageSize unset.
const DefaultPageSize = 10

// SortKey orders inventory listings.
type SortKey string

const (
	SortCode        SortKey = "code"
	SortDescription SortKey = "description"
	SortDiscrepancy SortKey = "discrepancy"
)

// ParseSort accepts a sort key name; empty means SortCode.
func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortCode, nil
	case SortCode, SortDescription, SortDiscrepancy:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q: %w", s, types.ErrInvalidData)
}

// Query selects and orders inventory rows. Search matches a
// case-insensitive substring of code or description. OnlyDiscrepancies keeps
// rows whose counts differ. PageSize is DefaultPageSize when zero; negative
// means no paging.
type Query struct {
	BranchID          string
	Search            string
	Sort              SortKey
	Desc              bool
	OnlyDiscrepancies bool
	Page              int
	PageSize          int
}

// Page is one page of results.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Pages    int `json:"pages"`
}

// Inventory applies q to items. The input slice is not modified.
func Inventory(items []types.InventoryItem, q Query) Page[types.InventoryItem] {
	needle := strings.ToUpper(strings.TrimSpace(q.Search))
	out := make([]types.InventoryItem, 0, len(items))
	for _, it := range items {
		if q.BranchID != "" && it.BranchID != q.BranchID {
			continue
		}
		if needle != "" && !matches(needle, it.Code, it.Description) {
			continue
		}
		if q.OnlyDiscrepancies && it.Discrepancy() == 0 {
			continue
		}
		out = append(out, it)
	}

	less := itemLess(q.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return Paginate(out, q.Page, q.PageSize)
}

// Products searches products by code or description, ordered by code.
func Products(products []types.Product, search string, page, size int) Page[types.Product] {
	needle := strings.ToUpper(strings.TrimSpace(search))
	out := make([]types.Product, 0, len(products))
	for _, p := range products {
		if needle == "" || matches(needle, p.Code, p.Description) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return Paginate(out, page, size)
}

// Paginate returns the 1-based page of items. Page numbers are clamped to
// the available range. A zero size uses DefaultPageSize; a negative size
// returns every item on one page.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 0 {
		size = max(len(items), 1)
	}
	pages := len(items) / size
	if len(items)%size != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := min(start+size, len(items))
	return Page[T]{
		Items:    append(make([]T, 0, end-start), items[start:end]...),
		Total:    len(items),
		Page:     page,
		PageSize: size,
		Pages:    pages,
	}
}

func matches(upperNeedle string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToUpper(f), upperNeedle) {
			return true
		}
	}
	return false
}

func itemLess(key SortKey) func(a, b types.InventoryItem) bool {
	switch key {
	case SortDescription:
		return func(a, b types.InventoryItem) bool {
			if a.Description != b.Description {
				return a.Description < b.Description
			}
			return a.Code < b.Code
		}
	case SortDiscrepancy:
		return func(a, b types.InventoryItem) bool {
			if a.Discrepancy() != b.Discrepancy() {
				return a.Discrepancy() < b.Discrepancy()
			}
			return a.Code < b.Code
		}
	}
	return func(a, b types.InventoryItem) bool {
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.BranchID < b.BranchID
	}
}
