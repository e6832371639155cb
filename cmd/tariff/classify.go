package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a single product",
		Long: `Run one product through the full classification pipeline: AI suggestion,
HS-code validation, business rules, compliance screening, confidence
assessment and threshold routing.`,
		RunE: runClassify,
	}

	cmd.Flags().String("description", "", "product description (required)")
	cmd.Flags().String("category", "", "product category")
	cmd.Flags().String("origin", "", "origin country (ISO 3166-1 alpha-2)")
	cmd.Flags().String("destination", "", "destination country (ISO 3166-1 alpha-2)")
	cmd.Flags().Float64("value", 0, "declared value in USD")
	cmd.Flags().StringSlice("materials", nil, "product materials")
	cmd.Flags().String("intended-use", "", "intended use of the product")
	cmd.Flags().String("id", "", "request ID (generated when omitted)")
	cmd.Flags().Bool("json", false, "emit the full outcome as JSON")
	cmd.Flags().Bool("no-store", false, "skip persisting the decision")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	product := model.Product{}
	product.Description, _ = cmd.Flags().GetString("description")
	product.Category, _ = cmd.Flags().GetString("category")
	product.OriginCountry, _ = cmd.Flags().GetString("origin")
	product.DestinationCountry, _ = cmd.Flags().GetString("destination")
	product.Materials, _ = cmd.Flags().GetStringSlice("materials")
	product.IntendedUse, _ = cmd.Flags().GetString("intended-use")
	if cmd.Flags().Changed("value") {
		value, _ := cmd.Flags().GetFloat64("value")
		product.Value = &value
	}

	requestID, _ := cmd.Flags().GetString("id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	noStore, _ := cmd.Flags().GetBool("no-store")
	var store service.Storage
	if !noStore {
		s, storeErr := initStorage(ctx, cfg)
		if storeErr != nil {
			return fmt.Errorf("failed to initialize storage: %w", storeErr)
		}
		defer closeStorage(s)
		store = s
	}

	eng, err := buildEngine(cfg, store, slog.Default())
	if err != nil {
		return err
	}

	out, err := eng.Classify(ctx, model.ClassificationRequest{ID: requestID, Product: product})
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(cli.RenderOutcome(out)) //nolint:forbidigo // User-facing output
	return nil
}
