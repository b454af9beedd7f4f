// Package prompt assembles the hybrid context block handed to the completion
// model: a static header, semantically retrieved past exchanges, the recent
// turn buffer and the current utterance, in that order.
package prompt

import (
	"fmt"
	"strings"

	"github.com/contextware/memchat/memory"
)

// DefaultHeader describes the assistant's role and how it should use
// remembered context.
const DefaultHeader = `You are a professional AI assistant with access to long-term memory.
You can remember past conversations and use that context to give more
personalized and relevant answers.

Instructions:
- Be professional, helpful and accurate
- Use information from past conversations when relevant
- Acknowledge when you remember something from a previous conversation
- If no relevant past context exists, focus on the current query
- Stay consistent with information shared in past conversations`

// Composer builds prompts from the turn buffer and retrieved memories.
type Composer struct {
	header string
}

// NewComposer creates a Composer. An empty header selects DefaultHeader.
func NewComposer(header string) *Composer {
	if header == "" {
		header = DefaultHeader
	}
	return &Composer{header: header}
}

// Compose produces the full prompt text. Sections appear in fixed order:
// header, relevant past conversations (only when retrieval returned
// anything), recent conversation (only when the buffer is non-empty), then
// the current utterance. A brand-new session therefore still yields a valid
// prompt of header plus utterance.
func (c *Composer) Compose(utterance string, recent []memory.Turn, retrieved memory.RetrievalResult) string {
	var b strings.Builder
	b.WriteString(c.header)

	if len(retrieved) > 0 {
		b.WriteString("\n\nRelevant past conversations:")
		for i, rec := range retrieved {
			fmt.Fprintf(&b, "\n%d. %s", i+1, rec.Text)
		}
	}

	if len(recent) > 0 {
		b.WriteString("\n\nRecent conversation:")
		for _, turn := range recent {
			fmt.Fprintf(&b, "\n%s: %s", turn.Speaker.Label(), turn.Text)
		}
	}

	fmt.Fprintf(&b, "\n\nUser: %s\nAssistant:", utterance)
	return b.String()
}
