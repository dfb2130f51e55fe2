package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/storefront/pkg/catalog"
)

func catalogCmd(configPath *string) *cobra.Command {
	var (
		filter  catalog.Filter
		asJSON  bool
		showCat bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List products of the configured catalog",
		Long: `List one page of products from the configured catalog, filtered and
sorted the way the product list page does.

Examples:
  storefront catalog
  storefront catalog --category1=Fashion --sort=price_desc
  storefront catalog --search=pan --json
  storefront catalog --categories`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(cmd.Context(), cmd.OutOrStdout(), *configPath, filter, asJSON, showCat)
		},
	}

	cmd.Flags().StringVar(&filter.Category1, "category1", "", "Top-level category")
	cmd.Flags().StringVar(&filter.Category2, "category2", "", "Subcategory")
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "Search term")
	cmd.Flags().StringVar(&filter.Sort, "sort", catalog.DefaultSort, "price_asc, price_desc, name_asc or name_desc")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "l", catalog.DefaultLimit, "Products per page")
	cmd.Flags().IntVarP(&filter.Page, "page", "p", catalog.DefaultPage, "Page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&showCat, "categories", false, "List categories instead of products")

	return cmd
}

func runCatalog(ctx context.Context, out io.Writer, configPath string, f catalog.Filter, asJSON, categories bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(io.Discard, cfg.Log)
	if err != nil {
		return err
	}
	cat, err := newCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}

	if categories {
		list, err := cat.Categories(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, list)
		}
		for _, c := range list {
			fmt.Fprintln(out, c.Name)
			for _, child := range c.Children {
				info(out, "%s", child)
			}
		}
		return nil
	}

	list, err := cat.Products(ctx, f.Normalize())
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, list)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range list.Products {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s/%s\n", p.ProductID, p.Title, p.LPrice, p.Stock, p.Category1, p.Category2)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	pg := list.Pagination
	success(out, "page %d of %d, %d products", pg.Page, pg.TotalPages, pg.Total)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
