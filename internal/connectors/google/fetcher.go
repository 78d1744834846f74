package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/docs/v1"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.ContentFetcher = (*Fetcher)(nil)

// Drive MIME types for native Google documents.
const (
	mimeDocument    = "application/vnd.google-apps.document"
	mimeSpreadsheet = "application/vnd.google-apps.spreadsheet"
)

// Fetcher extracts plain text from Google Docs and Sheets documents.
type Fetcher struct {
	services      *Services
	driveLimiter  *RateLimiter
	docsLimiter   *RateLimiter
	sheetsLimiter *RateLimiter
}

// NewFetcher creates a content fetcher over the given API clients.
func NewFetcher(services *Services) *Fetcher {
	return &Fetcher{
		services:      services,
		driveLimiter:  NewRateLimiter(ServiceDrive),
		docsLimiter:   NewRateLimiter(ServiceDocs),
		sheetsLimiter: NewRateLimiter(ServiceSheets),
	}
}

// DetectKind resolves a document id to its kind via Drive file metadata.
func (f *Fetcher) DetectKind(ctx context.Context, documentID string) (domain.DocumentKind, error) {
	if err := f.driveLimiter.Wait(ctx); err != nil {
		return domain.KindUnknown, err
	}

	file, err := f.services.Drive.Files.Get(documentID).
		Fields("mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		f.driveLimiter.RecordIfRateLimited(err)
		return domain.KindUnknown, fmt.Errorf("get file metadata: %w", WrapError(err))
	}

	switch file.MimeType {
	case mimeDocument:
		return domain.KindDocument, nil
	case mimeSpreadsheet:
		return domain.KindSpreadsheet, nil
	default:
		return domain.KindUnknown, nil
	}
}

// FetchText extracts the document's full plain text.
func (f *Fetcher) FetchText(ctx context.Context, documentID string, kind domain.DocumentKind) (string, error) {
	switch kind {
	case domain.KindDocument:
		return f.fetchDocText(ctx, documentID)
	case domain.KindSpreadsheet:
		return f.fetchSheetText(ctx, documentID)
	default:
		return "", fmt.Errorf("kind %q is not fetchable: %w", kind, domain.ErrInvalidInput)
	}
}

func (f *Fetcher) fetchDocText(ctx context.Context, documentID string) (string, error) {
	if err := f.docsLimiter.Wait(ctx); err != nil {
		return "", err
	}

	doc, err := f.services.Docs.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		f.docsLimiter.RecordIfRateLimited(err)
		return "", fmt.Errorf("get document: %w", WrapError(err))
	}
	if doc.Body == nil {
		return "", nil
	}

	var sb strings.Builder
	writeStructuralElements(&sb, doc.Body.Content)
	return strings.TrimSpace(sb.String()), nil
}

// writeStructuralElements walks the document body, descending into
// tables. Text runs already carry their trailing newlines.
func writeStructuralElements(sb *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe.TextRun != nil {
					sb.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				for _, cell := range row.TableCells {
					writeStructuralElements(sb, cell.Content)
				}
			}
		}
	}
}

// fetchSheetText renders every tab of a spreadsheet as lines of
// tab-separated cells, prefixed with the tab title.
func (f *Fetcher) fetchSheetText(ctx context.Context, documentID string) (string, error) {
	if err := f.sheetsLimiter.Wait(ctx); err != nil {
		return "", err
	}

	meta, err := f.services.Sheets.Spreadsheets.Get(documentID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		f.sheetsLimiter.RecordIfRateLimited(err)
		return "", fmt.Errorf("get spreadsheet metadata: %w", WrapError(err))
	}

	var sb strings.Builder
	for _, sheet := range meta.Sheets {
		if sheet.Properties == nil {
			continue
		}
		title := sheet.Properties.Title

		if err := f.sheetsLimiter.Wait(ctx); err != nil {
			return "", err
		}
		values, err := f.services.Sheets.Spreadsheets.Values.
			Get(documentID, fmt.Sprintf("'%s'", title)).
			Context(ctx).
			Do()
		if err != nil {
			f.sheetsLimiter.RecordIfRateLimited(err)
			return "", fmt.Errorf("get values for tab %q: %w", title, WrapError(err))
		}

		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "## %s\n", title)
		for _, row := range values.Values {
			cells := make([]string, len(row))
			for i, cell := range row {
				cells[i] = fmt.Sprint(cell)
			}
			sb.WriteString(strings.Join(cells, "\t"))
			sb.WriteString("\n")
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
