package memory

import "errors"

var (
	// ErrRecordNotFound indicates no record exists for a collection and key.
	ErrRecordNotFound = errors.New("memory record not found")

	// ErrCorruptRecord indicates stored bytes could not be decoded.
	ErrCorruptRecord = errors.New("corrupt memory record")

	// ErrStoreRequired indicates a TextMemory was created without a store.
	ErrStoreRequired = errors.New("memory store required")

	// ErrEmbedderRequired indicates a TextMemory was created without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyCollection indicates a collection name was empty.
	ErrEmptyCollection = errors.New("collection name is required")
)
