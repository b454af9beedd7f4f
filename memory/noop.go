package memory

import "context"

// Noop is the disabled long-term memory variant. Stores succeed without
// persisting anything and retrieval always comes back empty, so a session
// configured without long-term memory runs on the turn buffer alone.
type Noop struct{}

func (Noop) Store(ctx context.Context, text string, metadata map[string]string) (string, error) {
	return "", nil
}

func (Noop) Retrieve(ctx context.Context, query string, k int, minSimilarity float32) (RetrievalResult, error) {
	return nil, nil
}

func (Noop) ClearAll(ctx context.Context) error { return nil }

func (Noop) Count(ctx context.Context) (int, error) { return 0, nil }
