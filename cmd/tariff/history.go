package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/model"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show prior classifications of a product",
		Long: `Look up past decisions for a product. The product is identified by its
description, category, origin and destination, the same key the pipeline
uses for history-aware confidence scoring.`,
		RunE: runHistory,
	}

	cmd.Flags().String("description", "", "product description (required)")
	cmd.Flags().String("category", "", "product category")
	cmd.Flags().String("origin", "", "origin country")
	cmd.Flags().String("destination", "", "destination country")
	cmd.Flags().Int("limit", 10, "maximum entries to show")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	product := productFromFlags(cmd)
	limit, _ := cmd.Flags().GetInt("limit")

	prior, err := store.GetRecentClassifications(ctx, product.Hash(), limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if len(prior) == 0 {
		fmt.Println(cli.FormatInfo("No prior classifications for this product")) //nolint:forbidigo // User-facing output
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CLASSIFIED AT\tHS CODE\tCONFIDENCE")
	for _, p := range prior {
		fmt.Fprintf(w, "%s\t%s\t%.1f\n",
			p.ClassifiedAt.Format("2006-01-02 15:04"), p.HSCode, p.Confidence)
	}
	return w.Flush()
}

func productFromFlags(cmd *cobra.Command) model.Product {
	var product model.Product
	product.Description, _ = cmd.Flags().GetString("description")
	product.Category, _ = cmd.Flags().GetString("category")
	product.OriginCountry, _ = cmd.Flags().GetString("origin")
	product.DestinationCountry, _ = cmd.Flags().GetString("destination")
	return product
}
