package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"agencycrm/internal/services"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Payment status operations",
}

var statusCycleCmd = &cobra.Command{
	Use:   "cycle <kind> <id>",
	Short: "Advance a record's payment status",
	Long:  "Move a record to its next payment status (Pending -> Accepted -> Rejected -> Pending). Only admins may do this. The change is published when a broker is configured.",
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

		svc := services.NewRecordService(result.Store, result.Store, result.Events).WithLogger(logger)
		rec, err := svc.CyclePaymentStatus(cmd.Context(), actor, kind, args[1])
		if err != nil {
			return fmt.Errorf("cycle status %s %s: %w", kind, args[1], err)
		}

		if outputFlag == "json" {
			return writeJSON(cmd.OutOrStdout(), rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s is now %s\n", kind, rec.ID, rec.PaymentStatus)
		return nil
	},
}

func init() {
	statusCmd.AddCommand(statusCycleCmd)
	rootCmd.AddCommand(statusCmd)
}
