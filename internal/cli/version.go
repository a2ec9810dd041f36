package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockcount/pkg/stockcount"
)

const modulePath = "github.com/mesh-intelligence/stockcount"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the stockcount version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "stockcount v%s\nmodule: %s\n", stockcount.Version, modulePath)
			return nil
		},
	}
}
