// Package services implements the core use cases: document indexing
// with dual-index consistency, hybrid retrieval, and question answering
// with session memory.
package services
