package types

import (
	"fmt"
	"time"
)

// Unit types. The set is closed.
const (
	UnitUnits = "units"
	UnitCases = "cases"
)

var validUnitTypes = map[string]bool{
	UnitUnits: true,
	UnitCases: true,
}

// ValidUnitType reports whether u is one of the recognized unit types.
func ValidUnitType(u string) bool {
	return validUnitTypes[u]
}

// InventoryItem is the per-branch instance of a Product. Code and
// Description are a copy of the owning product's fields, kept in step on
// rename; they are not a join.
type InventoryItem struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Description   string     `json:"description"`
	PhysicalCount int        `json:"physicalCount"`
	SystemCount   int        `json:"systemCount"`
	UnitType      string     `json:"unitType"`
	BranchID      string     `json:"branchId"`
	LastUpdated   *time.Time `json:"lastUpdated"`
}

// Discrepancy returns physicalCount - systemCount.
func (i InventoryItem) Discrepancy() int {
	return i.PhysicalCount - i.SystemCount
}

// FormatDiscrepancy renders a discrepancy with an explicit sign for
// positive values: "+3", "-2", "0".
func FormatDiscrepancy(d int) string {
	if d > 0 {
		return fmt.Sprintf("+%d", d)
	}
	return fmt.Sprintf("%d", d)
}

// ValidateCounts checks that both counts are non-negative.
func ValidateCounts(physical, system int) error {
	var msgs []string
	if physical < 0 {
		msgs = append(msgs, "physical count must not be negative")
	}
	if system < 0 {
		msgs = append(msgs, "system count must not be negative")
	}
	return NewValidationError(msgs...)
}

// CountUpdate is one validated line of a batch count import. A nil
// SystemCount keeps the stored system count.
type CountUpdate struct {
	Code          string
	PhysicalCount int
	SystemCount   *int
}

// ItemInput is the single-item add form: counts and unit type for one
// (branch, code) pairing, creating the product when the code is new.
type ItemInput struct {
	Code          string `json:"code"`
	Description   string `json:"description"`
	PhysicalCount int    `json:"physicalCount"`
	SystemCount   int    `json:"systemCount"`
	UnitType      string `json:"unitType"`
	BranchID      string `json:"branchId"`
}

// Validate checks the form fields before any write or external call.
func (in ItemInput) Validate() error {
	var msgs []string
	if NormalizeText(in.Code) == "" {
		msgs = append(msgs, "code is required")
	}
	if NormalizeText(in.Description) == "" {
		msgs = append(msgs, "description is required")
	}
	if in.PhysicalCount < 0 {
		msgs = append(msgs, "physical count must not be negative")
	}
	if in.SystemCount < 0 {
		msgs = append(msgs, "system count must not be negative")
	}
	if !ValidUnitType(in.UnitType) {
		msgs = append(msgs, fmt.Sprintf("unit type must be %q or %q", UnitUnits, UnitCases))
	}
	if in.BranchID == "" {
		msgs = append(msgs, "branch is required")
	}
	return NewValidationError(msgs...)
}
