// Package sqlite provides SQLite-backed implementations of the storage
// ports using modernc.org/sqlite (pure Go, no CGO).
//
// One database file holds signals, documents, commits, version
// snapshots and commit-signal links. Vector search is a brute-force
// cosine scan over embedding blobs, which is plenty for the document
// counts a single workspace accumulates.
package sqlite
