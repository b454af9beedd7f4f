package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// Anthropic is the Claude-backed completion client.
type Anthropic struct {
	client anthropic.Client
	log    *logrus.Entry
}

// NewAnthropic creates a client against the Anthropic API.
func NewAnthropic(apiKey string, log *logrus.Entry) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		log:    log.WithField("component", "llm").WithField("provider", "anthropic"),
	}, nil
}

func (a *Anthropic) Provider() string { return "anthropic" }

// Complete sends the prompt as a single user message and concatenates the
// text blocks of the response.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultAnthropicModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", &Error{Kind: a.classify(ctx, err), Provider: a.Provider(), Err: err}
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", &Error{
			Kind:     KindMalformed,
			Provider: a.Provider(),
			Err:      fmt.Errorf("response contained no text blocks"),
		}
	}

	a.log.WithFields(logrus.Fields{
		"model":         model,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
	}).Debug("completion ok")
	return text, nil
}

func (a *Anthropic) classify(ctx context.Context, err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return KindTimeout
	}
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode)
	}
	return KindUnknown
}
