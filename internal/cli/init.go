package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockcount/internal/paths"
	"github.com/mesh-intelligence/stockcount/pkg/sqlite"
)

func (a *app) newInitCmd() *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize stockcount storage",
		Long: `Create the configuration and data directories, write a default
config.yaml and bootstrap the database schema. With --demo an empty
database is filled with sample branches and products.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInit(cmd, demo)
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "seed sample data into an empty database")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, demo bool) error {
	store, err := sqlite.Open(a.cfg.Store())
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Detach()

	out := cmd.OutOrStdout()
	if demo {
		seeder, ok := store.(sqlite.DemoSeeder)
		if !ok {
			return fmt.Errorf("backend %q cannot seed demo data", a.cfg.Backend)
		}
		seeded, err := seeder.SeedDemo(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			fmt.Fprintln(out, "Demo data loaded")
		} else {
			fmt.Fprintln(out, "Database not empty, demo data skipped")
		}
	}

	fmt.Fprintf(out, "stockcount initialized\nconfig: %s\ndata:   %s\n", paths.ConfigFile(a.configDir), a.cfg.DataDir)
	return nil
}
