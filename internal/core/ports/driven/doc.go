// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): indexes, stores, and external AI services.
//
// Port guarantees relied on by the core services:
//   - LexicalIndex and VectorIndex serialize writes internally; reads may
//     run concurrently with each other but not with a write in flight.
//   - Search methods return empty slices, never errors, for empty queries
//     or empty indexes.
package driven
