// Package memory implements the hybrid conversational memory used when
// assembling chat prompts: a bounded short-term turn buffer plus a long-term
// vector-backed store of past exchanges.
//
// Architecture:
//   - TurnStore: bounded FIFO buffer of recent turns (short-term)
//   - Index: nearest-neighbor storage backend (chromem-go locally,
//     swappable for a hosted index in production)
//   - Embedder: text-to-vector conversion (OpenAI API, mock for offline use)
//   - IndexAdapter: orchestrates embedding, insertion, top-k retrieval and
//     similarity-threshold filtering over an Index
//
// Long-term memory failures never break the chat path. Retrieval degrades to
// an empty result and storage failures are reported as PersistenceError so
// the caller can log and continue.
package memory
