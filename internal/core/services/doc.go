// Package services implements the application core: the reindex
// pipeline, the conversation gate, the command interpreter, the outreach
// campaign runner, and the RAG answer path. Services depend only on
// domain types and driven ports.
package services
