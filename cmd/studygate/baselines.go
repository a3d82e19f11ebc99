package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"studygate/adapters/excel"
)

func newBaselinesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Inspect and export the outlier-scoring baselines",
	}

	var sheet string
	exportCmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the active baselines to an xlsx workbook for recalibration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			live, err := loadBaselines(cfg, logger)
			if err != nil {
				return err
			}
			if sheet == "" {
				sheet = cfg.Baseline.Sheet
			}
			store := live.Current()
			if err := excel.WriteBaselines(args[0], sheet, store); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d baselines to %s\n", store.Len(), args[0])
			return nil
		},
	}
	exportCmd.Flags().StringVar(&sheet, "sheet", "", "Sheet name (defaults to the configured baseline sheet)")

	checkCmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate a recalibration workbook without applying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			overrides, err := excel.NewBaselineReader(args[0], cfg.Baseline.Sheet, logger).Read()
			if err != nil {
				return err
			}
			live, err := loadBaselines(cfg, logger)
			if err != nil {
				return err
			}
			if _, err := live.Current().Recalibrate(overrides); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d baselines OK\n", args[0], len(overrides))
			return nil
		},
	}

	cmd.AddCommand(exportCmd, checkCmd)
	return cmd
}
