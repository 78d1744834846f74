package google

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/api/sheets/v4"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
)

// Ensure SheetStore implements the interface.
var _ driven.SheetStore = (*SheetStore)(nil)

// templateRange covers the campaign message template grid. A1 holds
// either the text template or the interactive marker; B1:D3 hold the
// interactive header/body/footer and button titles/ids.
const templateRange = "MessageTemplate!A1:D3"

// interactiveMarker in A1 switches the template tab to its interactive
// button layout.
const interactiveMarker = "INTERACTIVE_MESSAGE"

// contactsRange covers the contacts tab (the spreadsheet's first tab).
const contactsRange = "A1:Z"

// Contact sheet header names. Matching is case-insensitive.
const (
	headerPhoneNumber       = "PhoneNumber"
	headerClientName        = "ClientName"
	headerInterestedService = "InterestedService"
	headerMessageStatus     = "MessageStatus"
	headerLastContacted     = "LastContactedDate"
)

// columnMap holds the 0-based column index per recognised header.
// An absent optional column is -1.
type columnMap struct {
	phoneNumber       int
	clientName        int
	interestedService int
	messageStatus     int
	lastContacted     int
}

// SheetStore reads and writes outreach contact sheets via the Sheets API.
type SheetStore struct {
	services *Services
	limiter  *RateLimiter

	mu      sync.Mutex
	columns map[string]columnMap // sheetID -> header layout
}

// NewSheetStore creates a contact sheet store.
func NewSheetStore(services *Services) *SheetStore {
	return &SheetStore{
		services: services,
		limiter:  NewRateLimiter(ServiceSheets),
		columns:  make(map[string]columnMap),
	}
}

// ReadRows returns every data row of the contacts tab, in sheet order.
func (s *SheetStore) ReadRows(ctx context.Context, sheetID string) ([]domain.CampaignRow, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	values, err := s.services.Sheets.Spreadsheets.Values.
		Get(sheetID, contactsRange).
		Context(ctx).
		Do()
	if err != nil {
		s.limiter.RecordIfRateLimited(err)
		return nil, fmt.Errorf("read contact rows: %w", WrapError(err))
	}
	if len(values.Values) == 0 {
		return nil, fmt.Errorf("sheet %s is empty: %w", sheetID, domain.ErrSheetAccess)
	}

	cols, err := mapColumns(values.Values[0])
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheetID, err)
	}

	s.mu.Lock()
	s.columns[sheetID] = cols
	s.mu.Unlock()

	rows := make([]domain.CampaignRow, 0, len(values.Values)-1)
	for i, raw := range values.Values[1:] {
		rows = append(rows, domain.CampaignRow{
			RowIndex:          i + 2, // 1-based, after the header row
			PhoneNumber:       cellValue(raw, cols.phoneNumber),
			ClientName:        cellValue(raw, cols.clientName),
			InterestedService: cellValue(raw, cols.interestedService),
			MessageStatus:     cellValue(raw, cols.messageStatus),
			LastContactedDate: cellValue(raw, cols.lastContacted),
		})
	}
	return rows, nil
}

// WriteRowStatus writes a row's MessageStatus cell back to the sheet.
func (s *SheetStore) WriteRowStatus(ctx context.Context, sheetID string, rowIndex int, status string) error {
	cols, err := s.columnsFor(ctx, sheetID)
	if err != nil {
		return err
	}
	return s.writeCell(ctx, sheetID, cols.messageStatus, rowIndex, status)
}

// WriteRowContactedDate writes a row's LastContactedDate cell. Returns
// domain.ErrNotFound when the sheet has no LastContactedDate column.
func (s *SheetStore) WriteRowContactedDate(ctx context.Context, sheetID string, rowIndex int, timestamp string) error {
	cols, err := s.columnsFor(ctx, sheetID)
	if err != nil {
		return err
	}
	if cols.lastContacted < 0 {
		return fmt.Errorf("sheet %s has no %s column: %w", sheetID, headerLastContacted, domain.ErrNotFound)
	}
	return s.writeCell(ctx, sheetID, cols.lastContacted, rowIndex, timestamp)
}

// ReadMessageTemplate returns the campaign message template from the
// sheet's MessageTemplate tab. A missing tab is not an error.
func (s *SheetStore) ReadMessageTemplate(ctx context.Context, sheetID string) (domain.MessageTemplate, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.MessageTemplate{}, err
	}

	values, err := s.services.Sheets.Spreadsheets.Values.
		Get(sheetID, templateRange).
		Context(ctx).
		Do()
	if err != nil {
		s.limiter.RecordIfRateLimited(err)
		if IsNotFound(err) {
			return domain.MessageTemplate{}, nil
		}
		return domain.MessageTemplate{}, fmt.Errorf("read message template: %w", WrapError(err))
	}

	return parseTemplateGrid(values.Values), nil
}

// parseTemplateGrid interprets the template tab's A1:D3 grid. A1 is the
// text template, unless it holds the interactive marker: then column B
// carries header/body/footer and columns C and D carry button titles
// and ids, one button per row. Buttons missing a title or id are
// dropped.
func parseTemplateGrid(values [][]any) domain.MessageTemplate {
	if gridValue(values, 0, 0) != interactiveMarker {
		return domain.MessageTemplate{Text: gridValue(values, 0, 0)}
	}

	msg := &domain.InteractiveMessage{
		Header: gridValue(values, 0, 1),
		Body:   gridValue(values, 1, 1),
		Footer: gridValue(values, 2, 1),
	}
	for row := 0; row < 3; row++ {
		title := gridValue(values, row, 2)
		id := gridValue(values, row, 3)
		if title == "" || id == "" {
			continue
		}
		msg.Buttons = append(msg.Buttons, domain.MessageButton{Title: title, ID: id})
	}

	return domain.MessageTemplate{Interactive: msg}
}

// gridValue safely reads a cell from a possibly ragged value grid.
func gridValue(values [][]any, row, column int) string {
	if row >= len(values) || column >= len(values[row]) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(values[row][column]))
}

func (s *SheetStore) writeCell(ctx context.Context, sheetID string, column, rowIndex int, value string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	cellRange := fmt.Sprintf("%s%d", columnLetter(column), rowIndex)
	body := &sheets.ValueRange{Values: [][]any{{value}}}

	_, err := s.services.Sheets.Spreadsheets.Values.
		Update(sheetID, cellRange, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		s.limiter.RecordIfRateLimited(err)
		return fmt.Errorf("write cell %s: %w", cellRange, WrapError(err))
	}
	return nil
}

// columnsFor returns the cached header layout, reading the header row
// when a write happens before any read.
func (s *SheetStore) columnsFor(ctx context.Context, sheetID string) (columnMap, error) {
	s.mu.Lock()
	cols, ok := s.columns[sheetID]
	s.mu.Unlock()
	if ok {
		return cols, nil
	}

	if _, err := s.ReadRows(ctx, sheetID); err != nil {
		return columnMap{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columns[sheetID], nil
}

// mapColumns resolves the header row to column indexes. PhoneNumber,
// ClientName and MessageStatus are required.
func mapColumns(header []any) (columnMap, error) {
	cols := columnMap{
		phoneNumber:       -1,
		clientName:        -1,
		interestedService: -1,
		messageStatus:     -1,
		lastContacted:     -1,
	}

	for i, cell := range header {
		name := strings.TrimSpace(fmt.Sprint(cell))
		switch {
		case strings.EqualFold(name, headerPhoneNumber):
			cols.phoneNumber = i
		case strings.EqualFold(name, headerClientName):
			cols.clientName = i
		case strings.EqualFold(name, headerInterestedService):
			cols.interestedService = i
		case strings.EqualFold(name, headerMessageStatus):
			cols.messageStatus = i
		case strings.EqualFold(name, headerLastContacted):
			cols.lastContacted = i
		}
	}

	var missing []string
	if cols.phoneNumber < 0 {
		missing = append(missing, headerPhoneNumber)
	}
	if cols.clientName < 0 {
		missing = append(missing, headerClientName)
	}
	if cols.messageStatus < 0 {
		missing = append(missing, headerMessageStatus)
	}
	if len(missing) > 0 {
		return columnMap{}, fmt.Errorf("missing required columns %s: %w",
			strings.Join(missing, ", "), domain.ErrSheetAccess)
	}

	return cols, nil
}

// cellValue safely reads a cell from a possibly short row.
func cellValue(row []any, column int) string {
	if column < 0 || column >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[column]))
}

// columnLetter converts a 0-based column index to its A1 letter form.
func columnLetter(column int) string {
	letters := ""
	for column >= 0 {
		letters = string(rune('A'+column%26)) + letters
		column = column/26 - 1
	}
	return letters
}
