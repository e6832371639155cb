package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/engine"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/service"
)

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Classify a batch of products from a file",
		Long: `Read classification requests from a YAML or JSON file and process them
through the pipeline in concurrent windows. A failed request never aborts
the batch; its error is reported in the summary.

The input file holds a list of requests:

  - id: shipment-001
    product:
      description: Smartphone with OLED display
      category: Electronics
      origin_country: KR
      destination_country: US
      value: 1200`,
		Args: cobra.ExactArgs(1),
		RunE: runBatch,
	}

	cmd.Flags().String("output", "", "write full outcomes as JSON to this file")
	cmd.Flags().Bool("no-store", false, "skip persisting decisions")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd.Context())
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	requests, err := readBatchFile(args[0])
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return fmt.Errorf("no requests found in %s", args[0])
	}
	for i := range requests {
		if requests[i].ID == "" {
			requests[i].ID = uuid.NewString()
		}
	}

	var store service.Storage
	if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
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

	bar := progressbar.NewOptions(len(requests),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	result := eng.ClassifyBatch(ctx, requests, func(done, _ int) {
		_ = bar.Set(done)
	})
	_ = bar.Finish()

	fmt.Println(cli.RenderBatchSummary(result)) //nolint:forbidigo // User-facing output

	if outputPath, _ := cmd.Flags().GetString("output"); outputPath != "" {
		if err := writeOutcomes(outputPath, result); err != nil {
			return err
		}
	}

	if result.ErrorCount > 0 {
		return fmt.Errorf("%d of %d requests failed", result.ErrorCount, len(requests))
	}
	return nil
}

func readBatchFile(path string) ([]model.ClassificationRequest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the CLI user
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var requests []model.ClassificationRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &requests); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &requests); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return requests, nil
}

func writeOutcomes(path string, result engine.BatchResult) error {
	f, err := os.Create(path) //nolint:gosec // Path comes from the CLI user
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("failed to close output file", "error", closeErr)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write outcomes: %w", err)
	}
	return nil
}
