package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockcount/internal/view"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

func (a *app) newInventoryCmd() *cobra.Command {
	var (
		q       view.Query
		sortKey string
	)
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List inventory rows",
		Long: `List inventory rows, optionally restricted to one branch, filtered by a
code or description substring and sorted by code, description or
discrepancy.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := view.ParseSort(sortKey)
			if err != nil {
				return usageError("%v", err)
			}
			q.Sort = key

			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			page, err := s.svc.Inventory(cmd.Context(), q)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), page)
			}
			if err := printItems(cmd.OutOrStdout(), page.Items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d rows\n", page.Page, page.Pages, page.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.BranchID, "branch", "", "branch id (default: all branches)")
	f.StringVar(&q.Search, "search", "", "filter by code or description substring")
	f.StringVar(&sortKey, "sort", string(view.SortCode), "sort key: code, description or discrepancy")
	f.BoolVar(&q.Desc, "desc", false, "reverse the sort order")
	f.BoolVar(&q.OnlyDiscrepancies, "discrepancies", false, "only rows whose counts differ")
	f.IntVar(&q.Page, "page", 1, "page number")
	f.IntVar(&q.PageSize, "page-size", -1, "rows per page (negative: all)")
	return cmd
}

func (a *app) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count <item-id> <physical> <system>",
		Short: "Record the physical and system count of one inventory row",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			physical, err := strconv.Atoi(args[1])
			if err != nil {
				return usageError("physical count %q is not a number", args[1])
			}
			system, err := strconv.Atoi(args[2])
			if err != nil {
				return usageError("system count %q is not a number", args[2])
			}

			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			item, err := s.svc.RecordCount(cmd.Context(), args[0], physical, system)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), item)
			}
			return printItems(cmd.OutOrStdout(), []types.InventoryItem{*item})
		},
	}
}
