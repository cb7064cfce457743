// Package core implements the per-profile vocabulary store: a typed JSON
// document table layered on SQLite, kept in sync with an FTS5 full-text
// index for lexical search and a vector table for semantic similarity
// search. Composite writes span the document table and both derived
// indexes inside a single transaction, so partial failure never leaves the
// indexes and the documents disagreeing.
package core
