package memory_test

import (
	"fmt"
	"testing"

	"github.com/contextware/memchat/memory"
)

func appendExchange(s *memory.TurnStore, n int) {
	s.Append(memory.Turn{Speaker: memory.SpeakerUser, Text: fmt.Sprintf("question %d", n)})
	s.Append(memory.Turn{Speaker: memory.SpeakerAssistant, Text: fmt.Sprintf("answer %d", n)})
}

func TestTurnStore_BoundNeverExceeded(t *testing.T) {
	store := memory.NewTurnStore(3)

	for i := 0; i < 50; i++ {
		store.Append(memory.Turn{Speaker: memory.SpeakerUser, Text: fmt.Sprintf("turn %d", i)})
		if store.Len() > 6 {
			t.Fatalf("store grew to %d turns, want <= 6", store.Len())
		}
	}
}

func TestTurnStore_FIFOEviction(t *testing.T) {
	// Window of 2 exchanges = 4 turns. Push 3 exchanges; the first must be
	// evicted, oldest first.
	store := memory.NewTurnStore(2)
	for i := 1; i <= 3; i++ {
		appendExchange(store, i)
	}

	snapshot := store.Snapshot()
	if len(snapshot) != 4 {
		t.Fatalf("snapshot has %d turns, want 4", len(snapshot))
	}
	if snapshot[0].Text != "question 2" {
		t.Errorf("oldest surviving turn = %q, want %q", snapshot[0].Text, "question 2")
	}
	if snapshot[3].Text != "answer 3" {
		t.Errorf("newest turn = %q, want %q", snapshot[3].Text, "answer 3")
	}
}

func TestTurnStore_SnapshotIsCopy(t *testing.T) {
	store := memory.NewTurnStore(2)
	appendExchange(store, 1)

	snapshot := store.Snapshot()
	snapshot[0].Text = "mutated"

	if got := store.Snapshot()[0].Text; got != "question 1" {
		t.Errorf("store content changed through snapshot: %q", got)
	}
}

func TestTurnStore_ClearIsIdempotent(t *testing.T) {
	store := memory.NewTurnStore(2)
	appendExchange(store, 1)

	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("Len() = %d after clear, want 0", store.Len())
	}
	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("Len() = %d after second clear, want 0", store.Len())
	}
}

func TestTurnStore_DefaultWindow(t *testing.T) {
	store := memory.NewTurnStore(0)
	if store.Window() != memory.DefaultWindow {
		t.Errorf("Window() = %d, want %d", store.Window(), memory.DefaultWindow)
	}
}
