// Package domain defines the core business entities for the concierge bot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a synced external document and its extracted text
//   - Chunk / EmbeddedChunk: the units of indexing and retrieval
//   - CampaignRow / CampaignResult: outreach campaign state
//   - Command: a parsed administrative chat command
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
