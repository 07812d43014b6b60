package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"agencycrm/internal/core"
	"agencycrm/internal/services"
)

var financialsCmd = &cobra.Command{
	Use:   "financials <kind> <id>",
	Short: "Show the financial summary of a lead or quotation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actor, err := requireActor()
		if err != nil {
			return err
		}
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}

		result, cleanup, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		svc := services.NewRecordService(result.Store, result.Store, nil).WithLogger(logger)
		fin, err := svc.Financials(cmd.Context(), actor, kind, args[1])
		if err != nil {
			return fmt.Errorf("financials %s %s: %w", kind, args[1], err)
		}

		if outputFlag == "json" {
			return writeJSON(cmd.OutOrStdout(), fin)
		}
		return printFinancials(cmd, fin)
	},
}

func printFinancials(cmd *cobra.Command, fin core.Financials) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	rows := []struct {
		label string
		value string
	}{
		{"Course total", core.FormatAmount(fin.CourseTotal)},
		{"Services total", core.FormatAmount(fin.ServicesTotal)},
		{"Discount", core.FormatAmount(fin.DiscountValue)},
		{"Grand total", core.FormatAmount(fin.GrandTotal)},
		{"Paid", core.FormatAmount(fin.PaidAmount)},
		{"Due", core.FormatAmount(fin.DueAmount)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.label, r.value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if fin.IsOverpaid() {
		fmt.Fprintln(cmd.OutOrStdout(), "Overpaid")
	}
	return nil
}

func init() { rootCmd.AddCommand(financialsCmd) }
