// Package sheets wraps the Google Sheets API for availability lookups and
// the durable conversation log.
package sheets

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	searchSheet       = "Sheet1"
	availabilitySheet = "Availability"
)

// logHeader is written as the first row of any auto-created log sheet.
var logHeader = []any{"Timestamp", "Parent Name", "Topic", "Help Provided", "Task Completed"}

type Service struct {
	svc           *sheets.Service
	spreadsheetID string
}

func New(ctx context.Context, credentialsPath, spreadsheetID string) (*Service, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read google credentials: %w", err)
	}
	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse google credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Service{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Range returns the values of one A1-notation range as strings.
func (s *Service) Range(ctx context.Context, rangeName string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rangeName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet range %s: %w", rangeName, err)
	}
	return toStrings(resp.Values), nil
}

// Search scans the primary sheet for rows containing the term in any cell,
// case-insensitive.
func (s *Service) Search(ctx context.Context, term string) ([][]string, error) {
	rows, err := s.Range(ctx, searchSheet+"!A:Z")
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(term)
	var matches [][]string
	for _, row := range rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), lower) {
				matches = append(matches, row)
				break
			}
		}
	}
	return matches, nil
}

// Availability returns the tutoring availability rows.
func (s *Service) Availability(ctx context.Context) ([][]string, error) {
	return s.Range(ctx, availabilitySheet+"!A:Z")
}

// SheetTitles lists the sheet tabs of the spreadsheet.
func (s *Service) SheetTitles(ctx context.Context) ([]string, error) {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}
	titles := make([]string, 0, len(meta.Sheets))
	for _, sh := range meta.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

// AppendRow appends one row to the named sheet, creating the sheet with the
// standard log header when it does not exist yet.
func (s *Service) AppendRow(ctx context.Context, sheetName string, row []any) error {
	if err := s.ensureSheet(ctx, sheetName); err != nil {
		return err
	}
	vr := &sheets.ValueRange{Values: [][]any{row}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row to %s: %w", sheetName, err)
	}
	return nil
}

func (s *Service) ensureSheet(ctx context.Context, sheetName string) error {
	titles, err := s.SheetTitles(ctx)
	if err != nil {
		return err
	}
	for _, t := range titles {
		if t == sheetName {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}
	log.Printf("created sheet %q with log header", sheetName)

	vr := &sheets.ValueRange{Values: [][]any{logHeader}}
	if _, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, sheetName+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", sheetName, err)
	}
	return nil
}

func toStrings(values [][]any) [][]string {
	out := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		out = append(out, cells)
	}
	return out
}
