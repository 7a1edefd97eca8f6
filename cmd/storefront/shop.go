package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/pagination"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func (c *cli) productsCmd() *cobra.Command {
	var (
		f             catalog.Filter
		page, perPage int
	)
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"shop"},
		Short:   "List products, optionally filtered by category or search term",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				products []domain.Product
				footer   string
			)
			if perPage > 0 {
				res, err := c.app.Catalog.Page(cmd.Context(), f, pagination.New(page, perPage))
				if err != nil {
					return err
				}
				products = res.Data
				footer = fmt.Sprintf("Page %d of %d (%d products)", res.Page, max(res.TotalPages, 1), res.TotalCount)
			} else {
				var err error
				if products, err = c.app.Catalog.List(cmd.Context(), f); err != nil {
					return err
				}
			}
			if len(products) == 0 {
				fmt.Fprintln(c.out, "No products found.")
				return nil
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE")
			for _, p := range products {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, money(p.Price))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if footer != "" {
				fmt.Fprintln(c.out, footer)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.Category, "category", catalog.AllCategories, "category name or slug to show")
	cmd.Flags().StringVar(&f.Search, "search", "", "match name, description or category")
	cmd.Flags().IntVar(&page, "page", 1, "page to show when --per-page is set")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "products per page, 0 lists everything")
	cmd.AddCommand(c.productShowCmd(), c.categoriesCmd(), c.seedCmd())
	return cmd
}

func (c *cli) productShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show product details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.app.Catalog.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c.printProduct(p)
			return nil
		},
	}
}

func (c *cli) printProduct(p *domain.Product) {
	fmt.Fprintf(c.out, "%s  %s\n", p.Name, money(p.Price))
	if p.Category != "" {
		fmt.Fprintf(c.out, "Category:        %s\n", p.Category)
	}
	if p.Sustainability != "" {
		fmt.Fprintf(c.out, "Sustainability:  %s\n", p.Sustainability)
	}
	if p.Description != "" {
		fmt.Fprintf(c.out, "\n%s\n", p.Description)
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List product categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := c.app.Catalog.List(cmd.Context(), catalog.Filter{})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, strings.Join(catalog.Categories(products), "\n"))
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog with the sample products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Catalog.Seed(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Sample products loaded.")
			return nil
		},
	}
}
