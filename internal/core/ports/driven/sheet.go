package driven

import (
	"context"

	"github.com/oasisprop/concierge/internal/core/domain"
)

// SheetStore reads and writes outreach contact sheets.
//
// A contact sheet has a header row with at least PhoneNumber, ClientName
// and MessageStatus columns; InterestedService and LastContactedDate are
// optional. Row indexes are 1-based sheet row numbers.
type SheetStore interface {
	// ReadRows returns every data row of the contacts tab, in sheet order.
	ReadRows(ctx context.Context, sheetID string) ([]domain.CampaignRow, error)

	// WriteRowStatus writes a row's MessageStatus cell back to the sheet.
	WriteRowStatus(ctx context.Context, sheetID string, rowIndex int, status string) error

	// WriteRowContactedDate writes a row's LastContactedDate cell.
	// Implementations return domain.ErrNotFound when the sheet has no
	// LastContactedDate column; callers treat that as "skip silently".
	WriteRowContactedDate(ctx context.Context, sheetID string, rowIndex int, timestamp string) error

	// ReadMessageTemplate returns the campaign message template from the
	// sheet's template tab, either a simple text template or an
	// interactive button template. A zero-value template with a nil
	// error means the tab is missing and the caller should fall back to
	// the default text.
	ReadMessageTemplate(ctx context.Context, sheetID string) (domain.MessageTemplate, error)
}
