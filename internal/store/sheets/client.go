// Package sheets stores transactions in a Google Spreadsheet, one row per
// transaction on a single sheet. It backs the remote deployment mode and the
// sync worker writes through it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"dompet/internal/core"
	"dompet/internal/store"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ store.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_SHEET_NAME (default "Transactions") and one of the
// credential variables newSheetsService documents.
func NewFromEnv(ctx context.Context) (*Client, error) {
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
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
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

	slog.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Insert appends the transaction as a new row. A transaction arriving
// without identity gets one here; a row with an empty id column would be
// skipped by every later read.
func (c *Client) Insert(ctx context.Context, tx core.Transaction) error {
	_, err := c.Append(ctx, newRowIdentity(tx))
	return err
}

// Append appends the transaction and returns the written range, which the
// sync worker stores as the remote reference.
func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{txRow(tx)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", store.WrapErr("sheets append", err)
	}
	if resp.Updates == nil || resp.Updates.UpdatedRange == "" {
		return "", store.WrapErr("sheets append", errors.New("append response missing updated range"))
	}
	return resp.Updates.UpdatedRange, nil
}

// ListByOwner scans the sheet and returns the owner's transactions, newest
// date first and most recent insertion first within a date. Malformed rows
// are skipped; the listing is best effort.
func (c *Client) ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:H", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, store.WrapErr("sheets list", err)
	}

	out := make([]core.Transaction, 0, len(resp.Values))
	pos := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		tx, ok := parseTxRow(toStrings(row))
		if !ok || tx.OwnerID != ownerID {
			continue
		}
		pos[tx.ID] = i
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.SameDay(out[j].Date) {
			return out[j].Date.Before(out[i].Date.Time)
		}
		return pos[out[i].ID] > pos[out[j].ID]
	})
	return out, nil
}

// Delete removes the owner's transaction row by id.
func (c *Client) Delete(ctx context.Context, ownerID, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return store.WrapErr("sheets delete", err)
	}
	for i, row := range resp.Values {
		cols := toStrings(row)
		if len(cols) < 2 || cols[0] != id || cols[1] != ownerID {
			continue
		}
		// Data starts at sheet row 2, so the zero-based grid index is i+1.
		return c.deleteRow(ctx, int64(i+1))
	}
	return store.ErrNotFound
}

// DeleteByRef removes the row a previous Append returned, e.g.
// "Transactions!A5:H5". Used by the sync worker, which tracks remote
// references instead of rescanning the sheet.
func (c *Client) DeleteByRef(ctx context.Context, ref string) error {
	row, err := refRow(ref)
	if err != nil {
		return err
	}
	return c.deleteRow(ctx, row-1)
}

func (c *Client) deleteRow(ctx context.Context, gridIndex int64) error {
	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: gridIndex,
					EndIndex:   gridIndex + 1,
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return store.WrapErr("sheets delete row", err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, store.WrapErr("sheets metadata", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, store.WrapErr("sheets metadata", fmt.Errorf("sheet %q not found", c.sheetName))
}
