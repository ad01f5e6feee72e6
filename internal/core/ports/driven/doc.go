// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Embedder: converts text into a fixed-length vector (Gemini, OpenAI)
//   - VectorIndex: stores (id, vector, payload) triples and answers
//     nearest-neighbour queries (Pinecone, SQLite, memory)
//   - Generator: opaque complete(prompt) -> text service
//   - Chunker: splits document text into overlapping chunks
//   - TextExtractor: turns uploaded file bytes into plain text
//   - RateLimiter: paces calls to a rate-limited provider
//
// Every adapter has a trivial in-memory substitute in tests; this is
// the seam that keeps the pipeline testable without network calls.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
