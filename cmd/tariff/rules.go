package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tradewind/tariffflow/internal/cli"
	"github.com/tradewind/tariffflow/internal/model"
	"github.com/tradewind/tariffflow/internal/rules"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
		Long: `Inspect, export and validate the business rules applied during
classification. Point rules.path in the config file at an exported YAML
file to replace the built-in ruleset.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesExportCmd())
	cmd.AddCommand(rulesValidateCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the effective classification rules",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ruleSet, err := loadRules(cfg)
			if err != nil {
				return err
			}

			sort.Slice(ruleSet, func(i, j int) bool {
				return ruleSet[i].Priority < ruleSet[j].Priority
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRIORITY\tENABLED\tCONDITIONS\tACTIONS\tNAME")
			for _, r := range ruleSet {
				fmt.Fprintf(w, "%s\t%d\t%v\t%d\t%d\t%s\n",
					r.ID, r.Priority, r.Enabled, len(r.Conditions), len(r.Actions), r.Name)
			}
			return w.Flush()
		},
	}
}

func rulesExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export the effective rules to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ruleSet, err := loadRules(cfg)
			if err != nil {
				return err
			}
			if err := writeYAMLFile(args[0], ruleSet); err != nil {
				return fmt.Errorf("failed to export rules: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d rules to %s", len(ruleSet), args[0]))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a rules YAML file",
		Long: `Load each rule from the file through the same validation the engine
applies at registration time (structure, operators, regex compilation).`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			var candidate []model.ClassificationRule
			if err := readYAMLFile(args[0], &candidate); err != nil {
				return fmt.Errorf("failed to read rules: %w", err)
			}

			registry := rules.NewEngine(nil, slog.Default())
			failures := 0
			for _, r := range candidate {
				if err := registry.AddRule(r); err != nil {
					failures++
					fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", r.ID, err))) //nolint:forbidigo // User-facing output
				}
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d rules failed validation", failures, len(candidate))
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("All %d rules are valid", len(candidate)))) //nolint:forbidigo // User-facing output
			return nil
		},
	}
}
