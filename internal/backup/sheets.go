// Package backup copies transactions to a Google Sheets spreadsheet. The
// spreadsheet is an off-site backup, not a query target: rows are append
// only and never read back.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finura/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type SheetsTarget struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsTargetFromEnv creates a backup target using environment variables
// and service account credentials.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Transactions")
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewSheetsTargetFromEnv(ctx context.Context) (*SheetsTarget, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsTarget{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// Append writes one transaction as a spreadsheet row. The transaction ID in
// the last column lets a later cleanup dedupe re-delivered events.
func (t *SheetsTarget) Append(ctx context.Context, tx core.Transaction) error {
	if t.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row := []any{
		core.DayKey(tx.Date),
		string(tx.Type),
		tx.Category,
		tx.Amount.Units(),
		tx.Note,
		tx.UserID,
		tx.ID,
	}

	rng := fmt.Sprintf("%s!A:G", t.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	_, err := t.svc.Spreadsheets.Values.Append(t.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", t.sheetName, err)
	}

	slog.InfoContext(ctx, "Transaction backed up to sheet",
		"tx_id", tx.ID,
		"sheet", t.sheetName)

	return nil
}
