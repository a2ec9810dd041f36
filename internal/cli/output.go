package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable returns a tab-aligned writer; the caller must Flush it.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printItems(w io.Writer, items []types.InventoryItem) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tCODE\tDESCRIPTION\tPHYSICAL\tSYSTEM\tDIFF\tUNIT")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			it.ID, it.Code, it.Description, it.PhysicalCount, it.SystemCount,
			types.FormatDiscrepancy(it.Discrepancy()), it.UnitType)
	}
	return tw.Flush()
}

// readPayload reads a CSV file argument; "-" reads stdin.
func readPayload(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
