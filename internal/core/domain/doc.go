// Package domain contains the core entities and business rules for the
// document question-answering pipeline: documents, chunks, sessions, and
// the error taxonomy shared by all layers.
package domain
