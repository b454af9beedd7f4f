// Package session drives a single conversation: it retrieves long-term
// context, composes the prompt, calls the completion model and persists the
// exchange into both memory tiers afterwards.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/contextware/memchat/llm"
	"github.com/contextware/memchat/memory"
	"github.com/contextware/memchat/prompt"
)

type state int

const (
	stateIdle state = iota
	stateAwaitingCompletion
)

// Stats reports memory usage. LongTermRecords is best-effort; it is zero
// when the index cannot report a count.
type Stats struct {
	ShortTermTurns  int `json:"short_term_turns"`
	ShortTermWindow int `json:"short_term_window"`
	LongTermRecords int `json:"long_term_records"`
}

// Config carries the per-session completion and retrieval settings.
type Config struct {
	Model          string
	Temperature    float64
	MaxTokens      int64
	RetrievalK     int
	MinSimilarity  float32
	RequestTimeout time.Duration
}

// Option configures the session.
type Option func(*Session)

// WithDegradationHook registers a callback invoked whenever long-term memory
// degrades (stage is "retrieve" or "store"). Used to feed metrics.
func WithDegradationHook(hook func(stage string)) Option {
	return func(s *Session) {
		s.onDegraded = hook
	}
}

// WithRetrievalObserver registers a callback receiving the number of
// long-term records retrieved for each chat request.
func WithRetrievalObserver(observe func(count int)) Option {
	return func(s *Session) {
		s.onRetrieved = observe
	}
}

// Session is the orchestrator for one conversation. All operations are
// serialized by an internal mutex so a host serving concurrent callers
// cannot interleave turn-buffer mutation.
type Session struct {
	mu    sync.Mutex
	state state

	turns    *memory.TurnStore
	longTerm memory.Capability
	composer *prompt.Composer
	client   llm.Client
	cfg      Config
	log      *logrus.Entry

	onDegraded  func(stage string)
	onRetrieved func(count int)
}

// New creates a session orchestrator. All collaborators are required; pass
// memory.Noop{} to run without long-term memory.
func New(turns *memory.TurnStore, longTerm memory.Capability, composer *prompt.Composer, client llm.Client, cfg Config, log *logrus.Entry, opts ...Option) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Session{
		turns:    turns,
		longTerm: longTerm,
		composer: composer,
		client:   client,
		cfg:      cfg,
		log:      log.WithField("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat processes one user utterance: retrieve relevant memories, compose the
// prompt, call the model, then persist the exchange. A failed completion
// returns the error with no state mutated. Failed long-term persistence is
// downgraded to a warning and the response is still returned.
func (s *Session) Chat(ctx context.Context, utterance string, metadata map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = stateAwaitingCompletion
	defer func() { s.state = stateIdle }()

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	// Retrieval must never block the chat path: degradation is a warning.
	retrieved, err := s.longTerm.Retrieve(ctx, utterance, s.cfg.RetrievalK, s.cfg.MinSimilarity)
	if err != nil {
		s.log.WithError(err).Warn("memory retrieval degraded")
		s.degraded("retrieve")
		retrieved = nil
	}
	if s.onRetrieved != nil {
		s.onRetrieved(len(retrieved))
	}

	composed := s.composer.Compose(utterance, s.turns.Snapshot(), retrieved)

	response, err := s.client.Complete(ctx, llm.Request{
		Prompt:      composed,
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		// No partial persistence: neither turn buffer nor index change.
		return "", err
	}

	now := time.Now().UTC()
	s.turns.Append(memory.Turn{Speaker: memory.SpeakerUser, Text: utterance, At: now})
	s.turns.Append(memory.Turn{Speaker: memory.SpeakerAssistant, Text: response, At: now})

	if _, err := s.longTerm.Store(ctx, exchangeText(utterance, response), exchangeMetadata(now, metadata)); err != nil {
		s.log.WithError(err).Warn("long-term store degraded; response returned without persistence")
		s.degraded("store")
	}

	return response, nil
}

// ClearMemory empties the turn buffer, and the long-term index too when
// clearLongTerm is set. Clearing an already-empty buffer is a no-op.
func (s *Session) ClearMemory(ctx context.Context, clearLongTerm bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns.Clear()
	if !clearLongTerm {
		return nil
	}
	if err := s.longTerm.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear long-term memory: %w", err)
	}
	return nil
}

// Stats reports current memory usage.
func (s *Session) Stats(ctx context.Context) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.longTerm.Count(ctx)
	if err != nil {
		s.log.WithError(err).Warn("long-term count unavailable")
		count = 0
	}
	return Stats{
		ShortTermTurns:  s.turns.Len(),
		ShortTermWindow: s.turns.Window(),
		LongTermRecords: count,
	}
}

func (s *Session) degraded(stage string) {
	if s.onDegraded != nil {
		s.onDegraded(stage)
	}
}

// exchangeText renders one combined record per exchange, the same layout the
// composer uses for recent turns so retrieved memories read naturally in the
// prompt.
func exchangeText(userMessage, assistantResponse string) string {
	return fmt.Sprintf("User: %s\nAssistant: %s", userMessage, assistantResponse)
}

func exchangeMetadata(at time.Time, extra map[string]string) map[string]string {
	md := map[string]string{
		"timestamp": at.Format(time.RFC3339),
		"type":      "conversation",
	}
	for k, v := range extra {
		md[k] = v
	}
	return md
}
