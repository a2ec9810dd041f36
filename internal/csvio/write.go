package csvio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// Export headers.
var (
	LogHeader      = []string{"código", "descripción", "físico", "sistema", "diferencia"}
	TemplateHeader = []string{"codigo", "descripcion", "fisico", "sistema"}
)

// WriteLog writes items in the log export layout, including the signed
// discrepancy. Fields holding a separator or quote are quoted with doubled
// internal quotes.
func WriteLog(w io.Writer, items []types.InventoryItem) error {
	return writeRows(w, LogHeader, items, func(it types.InventoryItem) []string {
		return []string{
			it.Code,
			it.Description,
			strconv.Itoa(it.PhysicalCount),
			strconv.Itoa(it.SystemCount),
			types.FormatDiscrepancy(it.Discrepancy()),
		}
	})
}

// WriteTemplate writes items in the catalog template layout, which
// re-imports in ModeFull.
func WriteTemplate(w io.Writer, items []types.InventoryItem) error {
	return writeRows(w, TemplateHeader, items, func(it types.InventoryItem) []string {
		return []string{
			it.Code,
			it.Description,
			strconv.Itoa(it.PhysicalCount),
			strconv.Itoa(it.SystemCount),
		}
	})
}

// writeRows writes comma-separated records. A field holding ',' or ';', a
// quote, a line break or leading whitespace is quoted so the output parses
// back with either separator rule.
func writeRows(w io.Writer, header []string, items []types.InventoryItem, row func(types.InventoryItem) []string) error {
	bw := bufio.NewWriter(w)
	if err := writeRecord(bw, header); err != nil {
		return err
	}
	for _, it := range items {
		if err := writeRecord(bw, row(it)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		if needsQuotes(f) {
			w.WriteByte('"')
			w.WriteString(strings.ReplaceAll(f, `"`, `""`))
			w.WriteByte('"')
			continue
		}
		w.WriteString(f)
	}
	_, err := w.WriteString("\n")
	return err
}

func needsQuotes(f string) bool {
	if f == "" {
		return false
	}
	return strings.ContainsAny(f, ",;\"\r\n") || f[0] == ' ' || f[0] == '\t'
}
