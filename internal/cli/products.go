package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockcount/internal/view"
	"github.com/mesh-intelligence/stockcount/pkg/types"
)

func (a *app) newProductsCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product"},
		Short:   "List catalog products",
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
			page := view.Products(snap.Products, search, 1, -1)
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), page.Items)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tCODE\tDESCRIPTION")
			for _, p := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Code, p.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "filter by code or description substring")
	cmd.AddCommand(a.newProductAddCmd())
	cmd.AddCommand(a.newProductUpdateCmd())
	cmd.AddCommand(a.newProductRemoveCmd())
	return cmd
}

func (a *app) newProductAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <code> <description>",
		Short: "Create a product with a zero-count row in every branch",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			res, err := s.svc.CreateProduct(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			p := res.Products[0]
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s created (%s), %d inventory rows\n",
				p.Code, p.ID, len(res.Inventory))
			return nil
		},
	}
}

func (a *app) newProductUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <code> <description>",
		Short: "Change the code and description of a product in every branch",
		Args:  exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			items, err := s.svc.UpdateProduct(cmd.Context(), types.Product{
				ID:          args[0],
				Code:        args[1],
				Description: args[2],
			})
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), items)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s updated, %d inventory rows\n", args[0], len(items))
			return nil
		},
	}
}

func (a *app) newProductRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a product and its rows in every branch",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.svc.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s deleted\n", args[0])
			return nil
		},
	}
}
