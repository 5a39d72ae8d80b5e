package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/semkit/ai"
)

// Information is text to remember, addressed by Key within a collection.
type Information struct {
	Key         string
	Text        string
	Description string
}

// TextMemory embeds text with an ai.Embedder and keeps it in a Store.
type TextMemory struct {
	store    Store
	embedder ai.Embedder
	pool     *ants.Pool
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a TextMemory.
type Option func(*TextMemory) error

// WithPoolSize sets how many embedding requests run concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(m *TextMemory) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if m.pool != nil {
			m.pool.Release()
		}
		m.pool = pool
		return nil
	}
}

// WithClock overrides the clock used to timestamp records.
func WithClock(now func() time.Time) Option {
	return func(m *TextMemory) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

// NewTextMemory creates a TextMemory over store. The caller keeps ownership
// of embedder; Close closes store.
func NewTextMemory(store Store, embedder ai.Embedder, opts ...Option) (*TextMemory, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	m := &TextMemory{
		store:    store,
		embedder: embedder,
		pool:     pool,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default().With("component", "text-memory"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			m.pool.Release()
			return nil, err
		}
	}
	return m, nil
}

// Store returns the underlying store.
func (m *TextMemory) Store() Store {
	return m.store
}

// Save embeds one piece of information and stores it.
func (m *TextMemory) Save(ctx context.Context, collection string, info Information) (ID, error) {
	ids, err := m.SaveAll(ctx, collection, []Information{info})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// SaveAll embeds every item concurrently on the worker pool, then stores
// them in one batch. Nothing is stored if any embedding fails.
func (m *TextMemory) SaveAll(ctx context.Context, collection string, items []Information) ([]ID, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, ErrEmptyCollection
	}
	if len(items) == 0 {
		return nil, nil
	}

	records := make([]*Record, len(items))
	errs := make([]error, len(items))
	ts := m.now()

	var wg sync.WaitGroup
	for i, item := range items {
		records[i] = &Record{
			ID:          RecordID(collection, item.Key),
			Collection:  collection,
			Key:         item.Key,
			Text:        item.Text,
			Description: item.Description,
			Timestamp:   ts,
		}
		wg.Add(1)
		rec := records[i]
		idx := i
		err := m.pool.Submit(func() {
			defer wg.Done()
			vector, err := m.embedder.EmbedText(ctx, rec.Text)
			if err != nil {
				errs[idx] = fmt.Errorf("embedding %s: %w", rec.Key, err)
				return
			}
			rec.Vector = vector
		})
		if err != nil {
			wg.Done()
			errs[idx] = err
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		m.logger.Error("failed to embed information", "collection", collection, "err", err)
		return nil, err
	}

	if err := m.store.Upsert(ctx, records...); err != nil {
		return nil, err
	}
	m.logger.Debug("saved information", "collection", collection, "count", len(records))

	ids := make([]ID, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids, nil
}

// Get returns the stored record for key.
func (m *TextMemory) Get(ctx context.Context, collection, key string) (*Record, error) {
	return m.store.Get(ctx, collection, key)
}

// Remove forgets the given keys.
func (m *TextMemory) Remove(ctx context.Context, collection string, keys ...string) error {
	return m.store.Remove(ctx, collection, keys...)
}

// Search embeds query and returns the closest records of collection.
func (m *TextMemory) Search(ctx context.Context, collection, query string, limit int, minRelevance float64) ([]*Match, error) {
	if strings.TrimSpace(collection) == "" {
		return nil, ErrEmptyCollection
	}
	vector, err := m.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}
	return m.store.Nearest(ctx, collection, vector, limit, minRelevance)
}

// Collections lists the stored collections.
func (m *TextMemory) Collections(ctx context.Context) ([]string, error) {
	return m.store.Collections(ctx)
}

// Close releases the worker pool and closes the store.
func (m *TextMemory) Close() error {
	m.pool.Release()
	return m.store.Close()
}
