// Package validation checks a single inventory entry before it is admitted.
// The check is an opaque boundary: a Validator answers valid or not with a
// list of messages, and callers reject the entry on any message.
package validation

import (
	"context"
	"errors"
	"strings"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// ErrUnavailable wraps failures to reach or understand the validation
// service.
var ErrUnavailable = errors.New("validation service unavailable")

// Request is the entry sent for validation. Branch is the branch name as
// shown to the user.
type Request struct {
	Code          string `json:"code"`
	Description   string `json:"description"`
	PhysicalCount int    `json:"physicalCount"`
	SystemCount   int    `json:"systemCount"`
	Branch        string `json:"branch"`
}

// Result is the validator's verdict.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validator validates one entry. A non-nil error means no verdict was
// reached; it is never a rejection.
type Validator interface {
	Validate(ctx context.Context, req Request) (Result, error)
}

// NewRequest builds the validation request for an add-form input.
func NewRequest(in types.ItemInput, branchName string) Request {
	return Request{
		Code:          types.NormalizeText(in.Code),
		Description:   types.NormalizeText(in.Description),
		PhysicalCount: in.PhysicalCount,
		SystemCount:   in.SystemCount,
		Branch:        branchName,
	}
}

// Rules is the local validator used when no remote service is configured.
type Rules struct{}

// Validate implements Validator.
func (Rules) Validate(_ context.Context, req Request) (Result, error) {
	var errs []string
	if strings.TrimSpace(req.Code) == "" {
		errs = append(errs, "code is required")
	} else if strings.ContainsAny(strings.TrimSpace(req.Code), " \t,;") {
		errs = append(errs, "code must not contain spaces or separators")
	}
	if strings.TrimSpace(req.Description) == "" {
		errs = append(errs, "description is required")
	}
	if req.PhysicalCount < 0 {
		errs = append(errs, "physical count must not be negative")
	}
	if req.SystemCount < 0 {
		errs = append(errs, "system count must not be negative")
	}
	if strings.TrimSpace(req.Branch) == "" {
		errs = append(errs, "branch is required")
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}, nil
}
