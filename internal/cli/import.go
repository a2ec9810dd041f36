package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockcount/internal/csvio"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

func (a *app) newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import products or counts from CSV",
	}
	cmd.AddCommand(a.newImportProductsCmd())
	cmd.AddCommand(a.newImportCountsCmd())
	return cmd
}

func (a *app) newImportProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products <file>",
		Short: "Add catalog products from a code,description CSV",
		Long: `Add every product of a code,description CSV whose code is new, with a
zero-count row in every branch. Existing codes are left untouched. A header
line is skipped and ";" separates fields when present. Use "-" for stdin.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.svc.ImportProducts(cmd.Context(), payload)
			if err != nil {
				if errors.Is(err, types.ErrNoValidRows) {
					return fmt.Errorf("no new products in %s: %w", args[0], err)
				}
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d products created, %d inventory rows added\n",
				len(res.Products), len(res.Inventory))
			return nil
		},
	}
}

func (a *app) newImportCountsCmd() *cobra.Command {
	var branchID, mode string
	cmd := &cobra.Command{
		Use:   "counts <file>",
		Short: "Apply a count sheet to one branch",
		Long: `Apply a count CSV to the rows of one branch. In physical mode (default)
lines are code,physical or code,description,physical and system counts are
kept. In full mode lines are code,physical,system or
code,description,physical,system[,difference]. Unknown codes are skipped.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if branchID == "" {
				return usageError("--branch is required")
			}
			m, err := csvio.ParseMode(mode)
			if err != nil {
				return usageError("%v", err)
			}
			payload, err := readPayload(cmd, args[0])
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.svc.ImportCounts(cmd.Context(), branchID, payload, m)
			if err != nil {
				if errors.Is(err, types.ErrNoValidRows) && res != nil {
					return fmt.Errorf("0 updated, %d skipped: %w", res.Skipped, err)
				}
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d updated, %d skipped\n", len(res.Updated), res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&branchID, "branch", "", "branch id (required)")
	cmd.Flags().StringVar(&mode, "mode", csvio.ModePhysical.String(), "import mode: physical or full")
	return cmd
}
