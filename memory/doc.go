// Package memory provides semantic memory: text stored alongside its
// embedding vector and retrieved by cosine similarity.
//
// Store is the persistence contract; memory/badger implements it on
// BadgerDB. TextMemory sits on top and handles embedding. After switching
// embedding models, TextMemory.Reembed rewrites the vectors of a collection.
package memory
