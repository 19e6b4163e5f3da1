// Package google reads transactions from a Google Sheet. The sheet is a
// read-only source: the first row holds column names and every following row
// is one transaction.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneyflow/internal/core"
	applog "moneyflow/internal/log"
	"moneyflow/internal/source"
)

var _ source.TransactionLister = (*Client)(nil)

type Config struct {
	SpreadsheetID string
	SheetName     string
	// ServiceAccountJSON takes precedence over ServiceAccountFile.
	ServiceAccountJSON string
	ServiceAccountFile string
	Location           *time.Location
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	loc           *time.Location
	logger        *applog.Logger
	sl            *applog.StructuredLogger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *applog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return newClient(svc, cfg, logger), nil
}

func newClient(svc *gsheet.Service, cfg Config, logger *applog.Logger) *Client {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentSheets)
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Transactions"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		loc:           cfg.Location,
		logger:        logger,
		sl:            applog.NewStructuredLogger(logger),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ListTransactions reads the whole sheet. Rows that fail validation are
// logged and left out.
func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	start := time.Now()
	rng := fmt.Sprintf("%s!A:Z", quoteSheet(c.sheetName))
	// Unformatted values keep amounts free of locale grouping. Dates stay as
	// displayed so zone-less cells are read in c.loc.
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", c.sheetName, err)
	}

	raws, err := parseTransactionRows(resp.Values)
	if err != nil {
		return nil, err
	}
	txs, rejected := core.DecodeAll(raws, c.loc)
	for _, r := range rejected {
		c.sl.LogRejected(ctx, applog.ComponentSheets, r.ID, r.Err)
	}

	c.logger.DebugContext(ctx, "Sheet read",
		"sheet", c.sheetName,
		"rows", len(raws),
		"rejected", len(rejected),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return txs, nil
}

// Ping checks that the spreadsheet is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ping spreadsheet: %w", err)
	}
	return nil
}

// quoteSheet wraps sheet names containing spaces or punctuation in quotes
// as A1 notation requires.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
