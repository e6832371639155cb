package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
)

func feedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate a past classification",
		Long: `Record a 1-5 rating of how accurate a past classification was. Ratings
feed the user-feedback component of future confidence assessments for the
same product.`,
		RunE: runFeedback,
	}

	cmd.Flags().String("description", "", "product description (required)")
	cmd.Flags().String("category", "", "product category")
	cmd.Flags().String("origin", "", "origin country")
	cmd.Flags().String("destination", "", "destination country")
	cmd.Flags().Int("rating", 0, "rating from 1 (wrong) to 5 (correct)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("rating")

	return cmd
}

func runFeedback(cmd *cobra.Command, _ []string) error {
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
	rating, _ := cmd.Flags().GetInt("rating")

	if err := store.SaveFeedback(ctx, product.Hash(), rating); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded rating %d", rating))) //nolint:forbidigo // User-facing output
	return nil
}
