package driven

import (
	"context"

	"github.com/oasisprop/concierge/internal/core/domain"
)

// ContentFetcher retrieves the current plain text of an external document.
// The concrete implementation talks to the Google Docs/Sheets/Drive APIs;
// the core treats both the kind lookup and the extraction as opaque.
type ContentFetcher interface {
	// DetectKind resolves the document kind via an external metadata
	// lookup (the Drive file's MIME type).
	DetectKind(ctx context.Context, documentID string) (domain.DocumentKind, error)

	// FetchText returns the full extracted text of the document.
	// An empty string with a nil error means the document exists but has
	// no extractable content.
	FetchText(ctx context.Context, documentID string, kind domain.DocumentKind) (string, error)
}
