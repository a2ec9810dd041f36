package types

import "strings"

// Branch is a physical location holding its own inventory counts.
type Branch struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Location string `json:"location" db:"location"`
}

// Normalize uppercases and trims the free-text fields.
func (b *Branch) Normalize() {
	b.Name = NormalizeText(b.Name)
	b.Location = NormalizeText(b.Location)
}

// NormalizeText trims surrounding whitespace and uppercases s. Every free-text
// field is stored in this form.
func NormalizeText(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
