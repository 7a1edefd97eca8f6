package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show your cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := c.app.Cart.Load(cmd.Context())
			if err != nil {
				return err
			}
			return c.printCart(cart)
		},
	}
	cmd.AddCommand(c.cartAddCmd(), c.cartUpdateCmd(), c.cartRemoveCmd())
	return cmd
}

func (c *cli) cartAddCmd() *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to your cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Cart.Add(cmd.Context(), args[0], quantity); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Added to cart.")
			return nil
		},
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "n", 1, "how many to add")
	return cmd
}

func (c *cli) cartUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set the quantity of a cart line (minimum 1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.InvalidInput(fmt.Sprintf("quantity %q is not a number", args[1]))
			}
			ctx := cmd.Context()
			if _, err := c.app.Cart.Load(ctx); err != nil {
				return err
			}
			if err := c.app.Cart.UpdateQuantity(ctx, args[0], quantity); err != nil {
				return err
			}
			return c.printCart(c.app.Cart.Snapshot())
		},
	}
}

func (c *cli) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from your cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.app.Cart.Load(ctx); err != nil {
				return err
			}
			if err := c.app.Cart.Remove(ctx, args[0]); err != nil {
				return err
			}
			return c.printCart(c.app.Cart.Snapshot())
		},
	}
}

func (c *cli) printCart(cart *domain.Cart) error {
	if len(cart.Items) == 0 {
		fmt.Fprintln(c.out, "Your cart is empty.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tQTY\tTOTAL")
	for _, item := range cart.Items {
		if !item.Resolved() {
			fmt.Fprintf(tw, "%s\t(no longer available)\t-\t%d\t-\n", item.ProductID, item.Quantity)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			item.ProductID, item.Product.Name, money(item.Product.Price), item.Quantity, money(item.LineTotal()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	subtotal := cart.Subtotal()
	fmt.Fprintf(c.out, "\nItems:     %d\n", cart.ItemCount())
	fmt.Fprintf(c.out, "Subtotal:  %s\n", money(subtotal))
	fmt.Fprintf(c.out, "Total:     %s (incl. tax)\n", money(domain.WithTax(subtotal, c.cfg.TaxRate)))
	return nil
}
