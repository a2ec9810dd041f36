package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newBranchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "branches",
		Aliases: []string{"branch"},
		Short:   "List branches",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			snap, err := s.svc.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), snap.Branches)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tLOCATION")
			for _, b := range snap.Branches {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Name, b.Location)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(a.newBranchAddCmd())
	cmd.AddCommand(a.newBranchRemoveCmd())
	return cmd
}

func (a *app) newBranchAddCmd() *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a branch with a zero-count row for every product",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.svc.CreateBranch(cmd.Context(), args[0], location)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Branch %s created (%s), %d inventory rows\n",
				res.Branch.Name, res.Branch.ID, len(res.Inventory))
			return nil
		},
	}
	cmd.Flags().StringVar(&location, "location", "", "branch location")
	return cmd
}

func (a *app) newBranchRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a branch and its inventory rows",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.svc.DeleteBranch(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Branch %s deleted\n", args[0])
			return nil
		},
	}
}
