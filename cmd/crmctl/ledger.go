package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agencycrm/internal/cli"
	"agencycrm/internal/core"
	"agencycrm/internal/ledger/google"
	"agencycrm/internal/worker"
)

var (
	snapshotKinds []string
	authPort      string
	authTokenFile string
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Payment ledger operations",
}

var ledgerSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Append every accepted record to the ledger",
	Long:  "Write one ledger row per Accepted record. Use it to back-fill the ledger after the worker missed events.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		kinds := make([]core.RecordKind, 0, len(snapshotKinds))
		for _, k := range snapshotKinds {
			kind, err := parseKind(k)
			if err != nil {
				return err
			}
			kinds = append(kinds, kind)
		}

		result, cleanup, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		writer, err := cli.NewLedgerWriter(ctx, cfg, logger)
		if err != nil {
			return err
		}
		w := worker.NewLedgerWorker(result.Store, writer)

		for _, kind := range kinds {
			n, err := w.Snapshot(ctx, kind)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", kind, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows written\n", kind, n)
		}
		return nil
	},
}

var ledgerAuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize the ledger with a Google OAuth client",
	Long:  "Run the installed-app consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE and save the token for the worker.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		oauthCfg, err := google.OAuthClientConfig()
		if err != nil {
			return err
		}
		if oauthCfg == nil {
			return errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
		}
		tok, err := google.Authorize(ctx, oauthCfg, authPort, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := google.SaveToken(authTokenFile, tok); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", authTokenFile)
		return nil
	},
}

func init() {
	ledgerSnapshotCmd.Flags().StringSliceVar(&snapshotKinds, "kind", []string{"quotations"}, "record kinds to snapshot")
	ledgerAuthCmd.Flags().StringVar(&authPort, "port", "8085", "local port for the OAuth redirect")
	ledgerAuthCmd.Flags().StringVar(&authTokenFile, "token-file", "token.json", "where to save the token")
	ledgerCmd.AddCommand(ledgerSnapshotCmd, ledgerAuthCmd)
	rootCmd.AddCommand(ledgerCmd)
}
