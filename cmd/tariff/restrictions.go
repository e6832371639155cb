package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/compliance"
	"github.com/tradewind/tariffflow/internal/model"
)

func restrictionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restrictions",
		Short: "Manage trade restrictions",
		Long: `Inspect, export and validate the trade restrictions used for compliance
screening. Point restrictions.path in the config file at an exported YAML
file to replace the built-in set.`,
	}

	cmd.AddCommand(restrictionsListCmd())
	cmd.AddCommand(restrictionsExportCmd())
	cmd.AddCommand(restrictionsValidateCmd())

	return cmd
}

func restrictionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the effective trade restrictions",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			restrictions, err := loadRestrictions(cfg)
			if err != nil {
				return err
			}

			sort.Slice(restrictions, func(i, j int) bool {
				return restrictions[i].ID < restrictions[j].ID
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tCOUNTRY\tPATTERN\tDESCRIPTION")
			for _, r := range restrictions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Type, r.Severity, r.Country, r.HSCodePattern, r.Description)
			}
			return w.Flush()
		},
	}
}

func restrictionsExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the effective restrictions to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			restrictions, err := loadRestrictions(cfg)
			if err != nil {
				return err
			}
			if err := writeYAMLFile(args[0], restrictions); err != nil {
				return fmt.Errorf("failed to export restrictions: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d restrictions to %s", len(restrictions), args[0]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}

func restrictionsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a restrictions YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var candidate []model.TradeRestriction
			if err := readYAMLFile(args[0], &candidate); err != nil {
				return fmt.Errorf("failed to read restrictions: %w", err)
			}

			registry := compliance.NewChecker(nil, slog.Default())
			failures := 0
			for _, r := range candidate {
				if err := registry.AddRestriction(r); err != nil {
					failures++
					fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", r.ID, err))) //nolint:forbidigo // User-facing output
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d restrictions failed validation", failures, len(candidate))
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("All %d restrictions are valid", len(candidate)))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
