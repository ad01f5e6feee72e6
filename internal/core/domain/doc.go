// Package domain defines the core entities of the pdfchat retrieval pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Chunk: a bounded, overlapping substring of a source document
//   - IndexedVector: the persisted (id, vector, payload) unit
//   - RetrievalResult: a scored snippet returned by a similarity query
//   - Settings: the configuration surface consumed by the core
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
