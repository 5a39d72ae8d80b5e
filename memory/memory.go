// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package memory

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID identifies a memory record. It is derived from the record's
// collection and key so re-saving the same key overwrites it.
type ID uint64

// RecordID hashes collection and key into an ID using BLAKE2b-64.
func RecordID(collection, key string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(collection))
	h.Write([]byte{0})
	h.Write([]byte(key))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is one piece of embedded information.
type Record struct {
	ID          ID
	Collection  string
	Key         string
	Text        string
	Description string
	Vector      []float32
	Timestamp   time.Time
}

// Match is a record returned by a similarity search.
type Match struct {
	Record    *Record
	Relevance float64
}

// Store persists records and answers nearest-neighbour queries.
type Store interface {
	// Upsert inserts or replaces records. A record with a zero ID is
	// assigned RecordID(Collection, Key).
	Upsert(ctx context.Context, records ...*Record) error

	// Get returns the record stored under key, or ErrRecordNotFound.
	Get(ctx context.Context, collection, key string) (*Record, error)

	// Remove deletes the records stored under keys. Missing keys are ignored.
	Remove(ctx context.Context, collection string, keys ...string) error

	// Nearest returns up to limit records of collection whose cosine
	// similarity to vector is at least minRelevance, most similar first.
	Nearest(ctx context.Context, collection string, vector []float32, limit int, minRelevance float64) ([]*Match, error)

	// Records returns every record of collection in storage order.
	Records(ctx context.Context, collection string) ([]*Record, error)

	// Collections lists the collections holding at least one record, sorted.
	Collections(ctx context.Context) ([]string, error)

	Close() error
}

// CosineSimilarity returns the cosine of the angle between a and b.
// Vectors of different length are compared over their common prefix;
// a zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
