package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// embedCacheCost budgets the ristretto cache at roughly 4k cached vectors of
// 1536 float32 dimensions.
const embedCacheCost = 4096 * 1536 * 4

// IndexAdapter is the vector-backed Capability. It owns embedding of stored
// and queried text, metadata tagging, similarity-threshold filtering and the
// graceful-degradation policy around the external index.
//
// Embeddings are deterministic per model version, so the adapter memoizes
// them in a ristretto cache keyed by text. Repeated queries and the
// store-after-retrieve pattern of a chat loop hit the cache instead of the
// embedding API.
type IndexAdapter struct {
	index    Index
	embedder Embedder
	cache    *ristretto.Cache
	log      *logrus.Entry
}

// NewIndexAdapter wires an Index and an Embedder into a Capability.
func NewIndexAdapter(index Index, embedder Embedder, log *logrus.Entry) (*IndexAdapter, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     embedCacheCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &IndexAdapter{
		index:    index,
		embedder: embedder,
		cache:    cache,
		log:      log.WithField("component", "memory"),
	}, nil
}

// Store embeds text and inserts it into the index together with metadata and
// the original text. Embedding failure propagates as ErrEmbeddingUnavailable,
// index failure as *PersistenceError; neither is retried here.
func (a *IndexAdapter) Store(ctx context.Context, text string, metadata map[string]string) (string, error) {
	embedding, err := a.embed(ctx, text)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	if err := a.index.Insert(ctx, id, text, embedding, metadata); err != nil {
		return "", &PersistenceError{Op: "insert", Err: err}
	}

	a.log.WithFields(logrus.Fields{"id": id, "chars": len(text)}).Debug("stored memory record")
	return id, nil
}

// Retrieve embeds the query, asks the index for the top-k neighbors and
// discards matches below minSimilarity. An empty or unavailable index yields
// an empty result; embedding or query failures yield an empty result plus an
// error wrapping ErrDegraded so the caller can log and continue.
func (a *IndexAdapter) Retrieve(ctx context.Context, query string, k int, minSimilarity float32) (RetrievalResult, error) {
	if k <= 0 {
		return nil, nil
	}

	embedding, err := a.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegraded, err)
	}

	matches, err := a.index.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: query index: %v", ErrDegraded, err)
	}

	result := make(RetrievalResult, 0, len(matches))
	for _, m := range matches {
		if m.Similarity < minSimilarity {
			continue
		}
		result = append(result, Record{
			ID:         m.ID,
			Text:       m.Text,
			Metadata:   m.Metadata,
			Similarity: m.Similarity,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Similarity > result[j].Similarity
	})
	if len(result) > k {
		result = result[:k]
	}

	a.log.WithFields(logrus.Fields{
		"matches":  len(matches),
		"returned": len(result),
	}).Debug("retrieved memories")
	return result, nil
}

// ClearAll deletes every record from the underlying index.
func (a *IndexAdapter) ClearAll(ctx context.Context) error {
	if err := a.index.DeleteAll(ctx); err != nil {
		return &PersistenceError{Op: "delete all", Err: err}
	}
	a.log.Info("cleared long-term memory")
	return nil
}

// Count reports the number of stored records.
func (a *IndexAdapter) Count(ctx context.Context) (int, error) {
	return a.index.Count(ctx)
}

func (a *IndexAdapter) embed(ctx context.Context, text string) ([]float32, error) {
	if cached, ok := a.cache.Get(text); ok {
		if vec, ok := cached.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}

	a.cache.Set(text, vec, int64(len(vec)*4))
	return vec, nil
}
