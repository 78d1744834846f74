package domain

// DocumentKind identifies what kind of external document an id refers to.
// It is derived from the Drive file's MIME type.
type DocumentKind string

const (
	// KindDocument is a Google Docs document.
	KindDocument DocumentKind = "document"

	// KindSpreadsheet is a Google Sheets spreadsheet.
	KindSpreadsheet DocumentKind = "spreadsheet"

	// KindUnknown is any other MIME type. Unknown kinds are not indexable.
	KindUnknown DocumentKind = "unknown"
)

// Document is the extracted text of an external document at the moment it
// was fetched. The ID is the external document id and is stable across
// edits; it is the deletion/replacement key in the vector index.
type Document struct {
	// ID is the external document identifier.
	ID string

	// Kind is the detected document kind.
	Kind DocumentKind

	// Content is the extracted plain text.
	Content string
}

// Chunk is a bounded span of a document's text. Chunks are created and
// destroyed entirely within one reindex run; they are immutable once built.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID is the source document this chunk came from.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Position is the 0-based ordinal of the chunk within its document.
	Position int
}

// EmbeddedChunk pairs a chunk with its embedding vector. It is the unit
// stored in the vector index.
type EmbeddedChunk struct {
	Chunk

	// Vector is the fixed-dimension embedding of Content.
	Vector []float32
}

// RetrievedChunk is a chunk returned by a similarity query, with its score.
type RetrievedChunk struct {
	Chunk

	// Score is the similarity of the chunk to the query. Higher is closer.
	Score float64
}
