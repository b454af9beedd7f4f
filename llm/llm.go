// Package llm wraps chat-completion providers behind a single narrow
// interface: prompt in, text out. The memory core treats the model as an
// opaque collaborator; only failure classification leaks through.
package llm

import (
	"context"
	"fmt"
)

// Kind classifies completion failures so callers can map them to transport
// responses and retry policies.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindRateLimit
	KindAuth
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindAuth:
		return "auth"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a failed completion call. It is fatal to the single chat
// invocation that triggered it and is surfaced to the caller untouched.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s completion failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Request is one completion call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Client executes completion calls against one provider.
// Implementations: Anthropic, OpenAI.
type Client interface {
	// Complete returns the model's text for the prompt. Failures are always
	// of type *Error.
	Complete(ctx context.Context, req Request) (string, error)

	// Provider names the backing service, e.g. "anthropic".
	Provider() string
}

// classifyStatus maps an HTTP status from a provider SDK to a Kind.
func classifyStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status == 408 || status == 504:
		return KindTimeout
	default:
		return KindUnknown
	}
}
