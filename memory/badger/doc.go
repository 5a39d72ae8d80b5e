// Package badger implements memory.Store on BadgerDB.
//
// Records are keyed by collection and ID so a similarity search only
// scans one collection. Vectors are compared by cosine similarity, so
// embeddings need not be normalized.
package badger
