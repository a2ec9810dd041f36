package csvio

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// Mode selects the column layout of a count import.
type Mode int

const (
	// ModePhysical reads only the physical count; the stored system count
	// is kept. Layouts: code,physical | code,description,physical |
	// code,description,physical,system[,difference] (system ignored).
	ModePhysical Mode = iota
	// ModeFull reads both counts. Layouts: code,physical,system |
	// code,description,physical,system | code,description,physical,system,difference.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModePhysical:
		return "physical"
	case ModeFull:
		return "full"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a mode name to a Mode. An empty name is ModePhysical.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "physical":
		return ModePhysical, nil
	case "full":
		return ModeFull, nil
	}
	return 0, fmt.Errorf("unknown import mode %q: %w", s, types.ErrInvalidData)
}

var headerKeywords = map[string]bool{
	"codigo": true, "código": true, "code": true,
	"descripcion": true, "descripción": true, "description": true,
	"fisico": true, "físico": true, "physical": true,
	"sistema": true, "system": true,
	"diferencia": true, "difference": true,
}

// isHeader reports whether line is a column header: one of its fields is
// exactly a header keyword. Keywords inside data values do not count.
func isHeader(line string) bool {
	for _, f := range splitLine(line, separator(line)) {
		if headerKeywords[strings.ToLower(strings.TrimSpace(f))] {
			return true
		}
	}
	return false
}

// separator returns the field separator used by line: ';' when one occurs
// outside quoted text, ',' otherwise.
func separator(line string) rune {
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ';' && !quoted:
			return ';'
		}
	}
	return ','
}

// dataLines splits payload into non-blank lines and drops a leading header.
func dataLines(payload string) []string {
	var lines []string
	for _, l := range strings.Split(payload, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) > 0 && isHeader(lines[0]) {
		lines = lines[1:]
	}
	return lines
}

// splitLine splits one line into fields. Lines with unbalanced quotes fall
// back to a plain split.
func splitLine(line string, sep rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		fields = strings.Split(line, string(sep))
	}
	return fields
}

// ParseProducts reads a catalog payload of code,description lines. The
// description is everything after the first separator. Rows are returned
// as written; the store normalizes them and drops incomplete ones.
func ParseProducts(payload string) []types.ProductInput {
	var rows []types.ProductInput
	for _, line := range dataLines(payload) {
		sep := separator(line)
		fields := splitLine(line, sep)
		row := types.ProductInput{Code: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			row.Description = strings.TrimSpace(strings.Join(fields[1:], string(sep)))
		}
		rows = append(rows, row)
	}
	return rows
}

// ParseCounts reads a count payload in the given mode. Lines with an empty
// code, a column count the mode does not accept, or a count that is not a
// non-negative integer are skipped. When a code repeats, the last line wins
// and earlier ones are counted as skipped. Codes are normalized.
func ParseCounts(payload string, mode Mode) (updates []types.CountUpdate, skipped int) {
	index := make(map[string]int)
	for _, line := range dataLines(payload) {
		u, ok := parseCountLine(splitLine(line, separator(line)), mode)
		if !ok {
			skipped++
			continue
		}
		if i, dup := index[u.Code]; dup {
			updates[i] = u
			skipped++
			continue
		}
		index[u.Code] = len(updates)
		updates = append(updates, u)
	}
	return updates, skipped
}

func parseCountLine(fields []string, mode Mode) (types.CountUpdate, bool) {
	var physCol, sysCol int
	switch {
	case mode == ModePhysical && len(fields) == 2:
		physCol, sysCol = 1, -1
	case mode == ModePhysical && len(fields) >= 3 && len(fields) <= 5:
		physCol, sysCol = 2, -1
	case mode == ModeFull && len(fields) == 3:
		physCol, sysCol = 1, 2
	case mode == ModeFull && (len(fields) == 4 || len(fields) == 5):
		physCol, sysCol = 2, 3
	default:
		return types.CountUpdate{}, false
	}

	u := types.CountUpdate{Code: types.NormalizeText(fields[0])}
	if u.Code == "" {
		return u, false
	}
	phys, ok := parseCount(fields[physCol])
	if !ok {
		return u, false
	}
	u.PhysicalCount = phys
	if sysCol >= 0 {
		sys, ok := parseCount(fields[sysCol])
		if !ok {
			return u, false
		}
		u.SystemCount = &sys
	}
	return u, true
}

// parseCount accepts a non-negative base-10 integer.
func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
