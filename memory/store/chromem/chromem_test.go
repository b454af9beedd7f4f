package chromem_test

import (
	"context"
	"testing"

	"github.com/contextware/memchat/memory/embedder/mock"
	"github.com/contextware/memchat/memory/store/chromem"
)

func TestStore_InsertQueryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New(t.TempDir(), "test_memories", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	embedder := mock.New(64)
	text := "User: My name is Alice\nAssistant: Nice to meet you, Alice"
	vec, err := embedder.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if err := store.Insert(ctx, "rec-1", text, vec, map[string]string{"type": "conversation"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	// Query with the identical embedding: cosine similarity 1.0.
	matches, err := store.Query(ctx, vec, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Text != text {
		t.Errorf("match text = %q", matches[0].Text)
	}
	if matches[0].Metadata["type"] != "conversation" {
		t.Errorf("match metadata = %v", matches[0].Metadata)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("self-similarity = %v, want ~1.0", matches[0].Similarity)
	}
}

func TestStore_QueryEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New("", "empty", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vec, _ := mock.New(64).Embed(ctx, "anything")
	matches, err := store.Query(ctx, vec, 5)
	if err != nil {
		t.Fatalf("empty collection must not error, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("got %d matches from empty collection", len(matches))
	}
}

func TestStore_QueryCapsAtCollectionSize(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New("", "small", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	embedder := mock.New(64)
	for _, text := range []string{"one", "two"} {
		vec, _ := embedder.Embed(ctx, text)
		if err := store.Insert(ctx, text, text, vec, nil); err != nil {
			t.Fatalf("Insert %q: %v", text, err)
		}
	}

	vec, _ := embedder.Embed(ctx, "one")
	matches, err := store.Query(ctx, vec, 10)
	if err != nil {
		t.Fatalf("Query with k beyond size: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
}

func TestStore_DeleteAllResetsCount(t *testing.T) {
	ctx := context.Background()
	store, err := chromem.New(t.TempDir(), "wipe_me", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	embedder := mock.New(64)
	vec, _ := embedder.Embed(ctx, "remember this")
	if err := store.Insert(ctx, "rec-1", "remember this", vec, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Fatalf("Count = %d, want 1", n)
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Fatalf("Count = %d after DeleteAll, want 0", n)
	}

	// The store keeps working after a wipe.
	if err := store.Insert(ctx, "rec-2", "fresh start", vec, nil); err != nil {
		t.Fatalf("Insert after DeleteAll: %v", err)
	}
}
