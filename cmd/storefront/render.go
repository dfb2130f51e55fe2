package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/storefront/pkg/storefront"
)

func renderCmd(configPath *string) *cobra.Command {
	var document bool

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render a page and print its markup",
		Long: `Render the page at path once every data load has settled and print
the root markup. With --document the markup is wrapped in a full HTML
document, as the server would send it.

Examples:
  storefront render /
  storefront render "/?category1=Fashion&sort=price_asc"
  storefront render /product/85067212996 --document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), cmd.OutOrStdout(), *configPath, args[0], document)
		},
	}

	cmd.Flags().BoolVarP(&document, "document", "d", false, "Wrap the markup in an HTML document")

	return cmd
}

func runRender(ctx context.Context, out io.Writer, configPath, path string, document bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
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

	if cfg.Server.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Server.RenderTimeout)
		defer cancel()
	}

	url := strings.TrimSuffix(cfg.URL(), "/") + path
	markup, err := pageRenderer(cfg, cat, logger, nil)(ctx, url)
	if err != nil {
		return err
	}
	if markup == "" {
		return fmt.Errorf("no route matches %s", path)
	}
	if document {
		if markup, err = storefront.Document(cfg.Name, cfg.RootID, markup); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out, markup)
	return err
}
