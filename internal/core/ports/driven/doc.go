// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChunkStore: authoritative document and chunk persistence
//   - FullTextIndex: BM25-ranked lexical search over chunk text
//
// # Optional Interfaces
//
// These can be nil - search degrades gracefully:
//
//   - VectorIndex: vector storage/search. Only useful with an EmbeddingService.
//   - EmbeddingService: generates vector embeddings. Without it, vector search
//     is disabled and new documents are indexed full-text only.
//   - LLMService: question answering over retrieved context.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
