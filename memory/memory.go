package memory

import (
	"context"
	"time"
)

// Speaker identifies who produced a conversational turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Label returns the speaker name used in prompts ("User" / "Assistant").
func (s Speaker) Label() string {
	if s == SpeakerAssistant {
		return "Assistant"
	}
	return "User"
}

// Turn is a single utterance by either the user or the assistant.
// Turns are immutable once appended to a TurnStore.
type Turn struct {
	Speaker Speaker
	Text    string
	At      time.Time
}

// Record is one long-term memory entry. Records are created when an exchange
// is persisted and are immutable afterwards; Similarity is populated only on
// retrieval.
type Record struct {
	ID         string
	Text       string
	Embedding  []float32
	Metadata   map[string]string
	Similarity float32
}

// RetrievalResult holds records ranked by descending similarity, already
// truncated to the requested k and filtered by the minimum similarity.
type RetrievalResult []Record

// Match is a raw nearest-neighbor hit as returned by an Index, before
// threshold filtering.
type Match struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Similarity float32
}

// Index is the boundary to the external nearest-neighbor store.
// Implementations: chromem (embedded, persistent). The index owns ranking;
// Query returns matches ordered by descending similarity.
type Index interface {
	Insert(ctx context.Context, id, text string, embedding []float32, metadata map[string]string) error
	Query(ctx context.Context, embedding []float32, k int) ([]Match, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// Embedder converts text to a fixed-length embedding vector.
// Implementations: openai (API-backed), mock (deterministic, offline).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Capability is long-term memory as seen by the session orchestrator.
// Variants are selected at construction time: Noop when long-term memory is
// disabled, IndexAdapter when backed by a vector index.
type Capability interface {
	// Store persists text with metadata and returns the new record ID.
	// Fails with ErrEmbeddingUnavailable or *PersistenceError; the caller
	// decides whether to continue without persistence.
	Store(ctx context.Context, text string, metadata map[string]string) (string, error)

	// Retrieve returns up to k records with similarity >= minSimilarity,
	// ranked descending. It never hard-fails: on embedding or index trouble
	// it returns an empty result together with an error wrapping
	// ErrDegraded, which callers treat as a warning.
	Retrieve(ctx context.Context, query string, k int, minSimilarity float32) (RetrievalResult, error)

	// ClearAll deletes every record. Destructive, no undo.
	ClearAll(ctx context.Context) error

	// Count reports the number of stored records, best-effort.
	Count(ctx context.Context) (int, error)
}
