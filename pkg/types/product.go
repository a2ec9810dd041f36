package types

// Product is a catalog entry, independent of any branch. Code is unique
// across the catalog.
type Product struct {
	ID          string `json:"id" db:"id"`
	Code        string `json:"code" db:"code"`
	Description string `json:"description" db:"description"`
}

// Normalize uppercases and trims code and description.
func (p *Product) Normalize() {
	p.Code = NormalizeText(p.Code)
	p.Description = NormalizeText(p.Description)
}

// Validate reports missing fields as a *ValidationError.
func (p Product) Validate() error {
	var msgs []string
	if NormalizeText(p.Code) == "" {
		msgs = append(msgs, "code is required")
	}
	if NormalizeText(p.Description) == "" {
		msgs = append(msgs, "description is required")
	}
	return NewValidationError(msgs...)
}

// ProductInput is one row of a bulk catalog import.
type ProductInput struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
