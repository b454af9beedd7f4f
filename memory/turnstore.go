package memory

// DefaultWindow is the short-term buffer size in exchanges
// (one exchange = one user turn plus one assistant turn).
const DefaultWindow = 10

// TurnStore is the short-term conversation buffer: an ordered sequence of
// turns bounded to window exchanges. When the bound is exceeded the oldest
// turns are evicted first. The zero value is not usable; use NewTurnStore.
//
// TurnStore does no locking of its own. The session orchestrator owns it and
// serializes access.
type TurnStore struct {
	window int
	turns  []Turn
}

// NewTurnStore creates a buffer holding up to windowExchanges exchanges,
// i.e. 2*windowExchanges turns. Non-positive values fall back to
// DefaultWindow.
func NewTurnStore(windowExchanges int) *TurnStore {
	if windowExchanges <= 0 {
		windowExchanges = DefaultWindow
	}
	return &TurnStore{window: windowExchanges}
}

// Append adds a turn at the tail, evicting from the head to keep the buffer
// within 2*window turns. It always succeeds.
func (s *TurnStore) Append(t Turn) {
	s.turns = append(s.turns, t)
	limit := 2 * s.window
	if len(s.turns) > limit {
		evict := len(s.turns) - limit
		s.turns = append(s.turns[:0], s.turns[evict:]...)
	}
}

// Snapshot returns the current contents in insertion order. The returned
// slice is a copy; mutating it does not affect the store.
func (s *TurnStore) Snapshot() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Clear empties the buffer.
func (s *TurnStore) Clear() {
	s.turns = s.turns[:0]
}

// Len reports the number of buffered turns.
func (s *TurnStore) Len() int { return len(s.turns) }

// Window reports the configured window size in exchanges.
func (s *TurnStore) Window() int { return s.window }
