package cli

import (
	"context"
	"fmt"

	"agencycrm/internal/config"
	"agencycrm/internal/ledger"
	"agencycrm/internal/ledger/google"
	"agencycrm/internal/ledger/memory"
	"agencycrm/internal/log"
)

// NewLedgerWriter returns the Google Sheets ledger when a spreadsheet is
// configured and an in-memory ledger otherwise.
func NewLedgerWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (ledger.Writer, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, ledger rows stay in memory")
		return memory.New(), nil
	}
	client, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.LedgerSheetName)
	if err != nil {
		return nil, fmt.Errorf("google sheets ledger: %w", err)
	}
	logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.LedgerSheetName)
	return client, nil
}
