package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "salesdash/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultRange covers every column of the "Sales" tab.
const DefaultRange = "Sales!A:Z"

// Client reads a sales table from a spreadsheet range.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	readRange     string
}

// Ensure interface conformance
var _ ports.DatasetReader = (*Client)(nil)

// New creates a Sheets client for spreadsheetID. Without options the
// service authenticates with a service account taken from the environment.
func New(ctx context.Context, spreadsheetID, readRange string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if strings.TrimSpace(readRange) == "" {
		readRange = DefaultRange
	}

	var (
		svc *gsheet.Service
		err error
	)
	if len(opts) == 0 {
		svc, err = newSheetsService(ctx)
	} else {
		svc, err = gsheet.NewService(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}, nil
}

// newSheetsService initializes a read-only Sheets Service. OAuth user
// credentials win when configured; otherwise a Service Account is read from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if svc, err := oauthService(ctx); err != nil || svc != nil {
		return svc, err
	}

	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Source names the range for logs and the dashboard notice.
func (c *Client) Source() string {
	return fmt.Sprintf("sheets:%s/%s", c.spreadsheetID, c.readRange)
}

// ReadDataset fetches the configured range as displayed in the sheet and
// renders it as CSV. Formatted values are used so dates keep the text the
// sheet shows rather than serial numbers.
func (c *Client) ReadDataset(ctx context.Context) ([]byte, string, error) {
	if c.svc == nil {
		return nil, "", errors.New("sheets service not initialized")
	}

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", c.readRange, err)
	}

	data, err := valuesToCSV(resp.Values)
	if err != nil {
		return nil, "", fmt.Errorf("render %s: %w", c.readRange, err)
	}
	slog.DebugContext(ctx, "Sheet range fetched",
		"range", c.readRange,
		"rows", len(resp.Values),
		"bytes", len(data))
	return data, c.Source(), nil
}
