// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// Driven ports are implemented by adapters in internal/adapters/driven
// and internal/connectors, and consumed by the core services. The core
// never imports an adapter package directly.
//
//   - ContentFetcher: extracts plain text from external documents
//   - EmbeddingService: turns text into vectors
//   - VectorIndex: stores and searches embedded chunks
//   - LLMService: generates grounded answers
//   - Messenger: delivers outbound chat messages
//   - SheetStore: reads and writes outreach contact sheets
//   - MessageStore: records conversation history
package driven
