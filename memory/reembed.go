package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/semkit/retry"
)

// ReembedConfig controls TextMemory.Reembed.
type ReembedConfig struct {
	// BatchSize is the number of records embedded per request.
	BatchSize int

	// MaxRetries is the number of attempts per batch.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration

	// Progress, when set, is told about every stored batch.
	Progress *ProgressTracker
}

// DefaultReembedConfig returns a ReembedConfig with default values.
func DefaultReembedConfig() *ReembedConfig {
	return &ReembedConfig{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Reembed recomputes the vector of every record in collection with the
// memory's embedder, keeping text and keys. Run it after switching
// embedding models. It returns the number of records rewritten; batches
// stored before a failure stay rewritten.
func (m *TextMemory) Reembed(ctx context.Context, collection string, config *ReembedConfig) (int, error) {
	if config == nil {
		config = DefaultReembedConfig()
	}
	batchSize := max(config.BatchSize, 1)
	attempts := max(config.MaxRetries, 1)

	records, err := m.store.Records(ctx, collection)
	if err != nil {
		return 0, err
	}
	m.logger.Info("re-embedding collection", "collection", collection, "records", len(records))

	if config.Progress != nil {
		config.Progress.Start(len(records))
		defer config.Progress.Finish()
	}

	done := 0
	for start := 0; start < len(records); start += batchSize {
		batch := records[start:min(start+batchSize, len(records))]
		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Text
		}

		var vectors [][]float32
		err := retry.WithBackoff(ctx, func(ctx context.Context) error {
			var err error
			vectors, err = m.embedder.EmbedTexts(ctx, texts)
			return err
		}, attempts, config.RetryDelay)
		if err != nil {
			return done, fmt.Errorf("embedding batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return done, fmt.Errorf("embedding batch at %d: got %d vectors for %d records", start, len(vectors), len(batch))
		}

		ts := m.now()
		for i, r := range batch {
			r.Vector = vectors[i]
			r.Timestamp = ts
		}
		if err := m.store.Upsert(ctx, batch...); err != nil {
			return done, err
		}

		done += len(batch)
		if config.Progress != nil {
			config.Progress.Increment(len(batch))
		}
	}

	m.logger.Info("re-embedded collection", "collection", collection, "records", done)
	return done, nil
}
