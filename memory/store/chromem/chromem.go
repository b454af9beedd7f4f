// Package chromem backs the memory.Index interface with chromem-go,
// a pure Go embedded vector database persisted to a local directory.
package chromem

import (
	"context"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/sirupsen/logrus"

	"github.com/contextware/memchat/memory"
)

// Store is a chromem-go backed nearest-neighbor index. A single collection
// holds all records; cosine similarity is the ranking metric.
type Store struct {
	db   *chromem.DB
	name string

	mu  sync.Mutex
	col *chromem.Collection
	log *logrus.Entry
}

// New opens (or creates) a persistent store under dir. An empty dir keeps
// everything in process memory, which is what tests use.
func New(dir, collection string, log *logrus.Entry) (*Store, error) {
	if collection == "" {
		collection = "long_term_memory"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var db *chromem.DB
	var err error
	if dir == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	// Embeddings are supplied by the caller, so no embedding func is wired
	// into the collection.
	col, err := db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, err)
	}

	return &Store{
		db:   db,
		name: collection,
		col:  col,
		log:  log.WithField("component", "chromem"),
	}, nil
}

// Insert adds one record with its precomputed embedding.
func (s *Store) Insert(ctx context.Context, id, text string, embedding []float32, metadata map[string]string) error {
	s.mu.Lock()
	col := s.col
	s.mu.Unlock()

	doc := chromem.Document{
		ID:        id,
		Content:   text,
		Embedding: embedding,
		Metadata:  metadata,
	}
	if err := col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query returns the top-k nearest neighbors ranked by descending cosine
// similarity. An empty collection returns no matches and no error.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]memory.Match, error) {
	s.mu.Lock()
	col := s.col
	s.mu.Unlock()

	// chromem rejects nResults larger than the collection, so cap first.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	matches := make([]memory.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, memory.Match{
			ID:         r.ID,
			Text:       r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return matches, nil
}

// DeleteAll drops the collection and recreates it empty.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}
	s.col = col
	s.log.WithField("collection", s.name).Info("collection cleared")
	return nil
}

// Count reports the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	col := s.col
	s.mu.Unlock()
	return col.Count(), nil
}

// Close releases resources. chromem persists on every write, so there is
// nothing to flush.
func (s *Store) Close() error { return nil }
