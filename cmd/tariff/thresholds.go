package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/confidence"
	"github.com/tradewind/tariffflow/internal/model"
)

func thresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Manage confidence threshold bands",
		Long: `Inspect, export and validate the confidence bands that route
classification decisions. Point thresholds.path in the config file at an
exported YAML file to replace the built-in bands.`,
	}

	cmd.AddCommand(thresholdsListCmd())
	cmd.AddCommand(thresholdsExportCmd())
	cmd.AddCommand(thresholdsValidateCmd())

	return cmd
}

func thresholdsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the effective threshold bands",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bands, err := loadThresholds(cfg)
			if err != nil {
				return err
			}

			sort.Slice(bands, func(i, j int) bool {
				return bands[i].Priority < bands[j].Priority
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRIORITY\tBAND\tCATEGORY\tACTION\tENABLED")
			for _, b := range bands {
				fmt.Fprintf(w, "%s\t%d\t%.2f-%.2f\t%s\t%s\t%v\n",
					b.ID, b.Priority, b.MinConfidence, b.MaxConfidence,
					orDash(b.Category), b.Action.Type, b.Enabled)
			}
			return w.Flush()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func thresholdsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the effective threshold bands to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bands, err := loadThresholds(cfg)
			if err != nil {
				return err
			}
			if err := writeYAMLFile(args[0], bands); err != nil {
				return fmt.Errorf("failed to export thresholds: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d thresholds to %s", len(bands), args[0]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func thresholdsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a thresholds YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var candidate []model.ConfidenceThreshold
			if err := readYAMLFile(args[0], &candidate); err != nil {
				return fmt.Errorf("failed to read thresholds: %w", err)
			}

			registry := confidence.NewRouter(nil, slog.Default())
			failures := 0
			for _, b := range candidate {
				if err := registry.AddThreshold(b); err != nil {
					failures++
					fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", b.ID, err))) //nolint:forbidigo // User-facing output
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d thresholds failed validation", failures, len(candidate))
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("All %d thresholds are valid", len(candidate)))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
