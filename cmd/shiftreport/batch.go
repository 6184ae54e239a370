package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var aggregateDate string

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Recompute the daily aggregate of a date from its stored shifts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		agg, ok, err := a.reports.Recompute(cmd.Context(), aggregateDate)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "fewer than %d shifts stored for %s, nothing aggregated\n", a.reports.RequiredShifts(), aggregateDate)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "aggregated %s: %d components\n", agg.Date, agg.CPUUsage.Len())
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a report to its output area",
}

var exportShiftCmd = &cobra.Command{
	Use:   "shift <dd-mm-yyyy> <shift>",
	Short: "Render the report of a single shift snapshot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		shift, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("shift must be a number: %w", err)
		}
		return runExport(cmd, func(a *app) (string, error) {
			return a.reports.ExportShiftReport(cmd.Context(), args[0], shift)
		})
	},
}

var exportDailyCmd = &cobra.Command{
	Use:   "daily <dd-mm-yyyy>",
	Short: "Render the report of a daily aggregate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd, func(a *app) (string, error) {
			return a.reports.ExportDailyReport(cmd.Context(), args[0])
		})
	},
}

var exportMonthlyCmd = &cobra.Command{
	Use:   "monthly <year> <month>",
	Short: "Render the monthly report with usage charts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("year must be a number: %w", err)
		}
		month, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("month must be a number: %w", err)
		}
		return runExport(cmd, func(a *app) (string, error) {
			return a.reports.ExportMonthlyReport(cmd.Context(), year, month)
		})
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateDate, "date", "", "Date to aggregate (dd-mm-yyyy)")
	_ = aggregateCmd.MarkFlagRequired("date")
	exportCmd.AddCommand(exportShiftCmd, exportDailyCmd, exportMonthlyCmd)
}

func runExport(cmd *cobra.Command, export func(*app) (string, error)) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	path, err := export(a)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
