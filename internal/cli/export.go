package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export CSV sheets",
	}
	cmd.AddCommand(a.newExportTemplateCmd())
	return cmd
}

func (a *app) newExportTemplateCmd() *cobra.Command {
	var branchID, output string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the count sheet of a branch",
		Long: `Write codigo,descripcion,fisico,sistema with the current counts of every
row of a branch, ordered by code. The sheet re-imports with
"import counts --mode full".`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if branchID == "" {
				return usageError("--branch is required")
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.svc.Branch(cmd.Context(), branchID); err != nil {
				return fmt.Errorf("branch %s: %w", branchID, err)
			}
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return s.svc.ExportTemplate(cmd.Context(), w, branchID)
		},
	}
	cmd.Flags().StringVar(&branchID, "branch", "", "branch id (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
