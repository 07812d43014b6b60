package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"agencycrm/internal/backend"
	"agencycrm/internal/cli"
	"agencycrm/internal/config"
	"agencycrm/internal/core"
	"agencycrm/internal/log"
)

var (
	cfg    *config.Config
	logger *log.Logger

	actorFlag  string
	outputFlag string
)

var rootCmd = &cobra.Command{
	Use:   "crmctl",
	Short: "Operate the agency CRM from the command line",
	Long:  "Inspect record financials and sales progress, cycle payment statuses, run SQLite migrations and back-fill the payment ledger.",

	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cli.LoadEnvFile()
		c, err := cli.LoadAndValidateConfig(nil)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		logger = cli.SetupLogger(cmd.ErrOrStderr(), cfg, "crmctl")
		if outputFlag != "text" && outputFlag != "json" {
			return fmt.Errorf("invalid --output %q: must be text or json", outputFlag)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", os.Getenv("CRM_ACTOR"), "email of the acting user (default $CRM_ACTOR)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openBackend builds the configured store. Callers must run the returned
// cleanup.
func openBackend(ctx context.Context) (*backend.BackendResult, func(), error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err.Error())
		}
	}
	return result, cleanup, nil
}

func requireActor() (string, error) {
	actor := strings.TrimSpace(actorFlag)
	if actor == "" {
		return "", fmt.Errorf("%w: set --actor or CRM_ACTOR", core.ErrForbidden)
	}
	return actor, nil
}

// parseKind names the rejected argument; kind parsing itself lives in core.
func parseKind(s string) (core.RecordKind, error) {
	kind, err := core.ParseRecordKind(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, s)
	}
	return kind, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
