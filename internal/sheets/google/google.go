package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	ports "vbudget/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.TransactionExporter = (*Client)(nil)

// Options selects the spreadsheet and the service account used to reach it.
// CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, extra ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, opts, extra...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service. Extra options replace the
// service account lookup entirely, which is how tests point the client at a
// local server.
func newSheetsService(ctx context.Context, opts Options, extra ...goption.ClientOption) (*gsheet.Service, error) {
	if len(extra) > 0 {
		return gsheet.NewService(ctx, extra...)
	}

	credentialsJSON, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		return []byte(opts.CredentialsJSON), nil
	case strings.TrimSpace(opts.CredentialsFile) != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Export clears the sheet and writes rows starting at A1. The first row is
// the header and is not counted.
func (c *Client) Export(ctx context.Context, sheet string, rows [][]any) (int, error) {
	if c.svc == nil {
		return 0, errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(sheet) == "" {
		return 0, errors.New("missing sheet name")
	}

	name := quoteSheet(sheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, name, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("clear sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	rng := fmt.Sprintf("%s!A1", name)
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write sheet %s: %w", sheet, err)
	}

	written := int(resp.UpdatedRows) - 1
	if written < 0 {
		written = 0
	}
	slog.InfoContext(ctx, "Exported transactions to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"sheet", sheet,
		"rows", written)
	return written, nil
}

// quoteSheet wraps a sheet name in single quotes for A1 notation, doubling
// any quote inside it.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(strings.TrimSpace(name), "'", "''") + "'"
}
