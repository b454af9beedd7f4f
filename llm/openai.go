package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI is the GPT-backed completion client.
type OpenAI struct {
	client *openai.Client
	log    *logrus.Entry
}

// NewOpenAI creates a client against the OpenAI API.
func NewOpenAI(apiKey string, log *logrus.Entry) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAI{
		client: &client,
		log:    log.WithField("component", "llm").WithField("provider", "openai"),
	}, nil
}

func (o *OpenAI) Provider() string { return "openai" }

// Complete sends the prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(req.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", &Error{Kind: o.classify(ctx, err), Provider: o.Provider(), Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &Error{
			Kind:     KindMalformed,
			Provider: o.Provider(),
			Err:      fmt.Errorf("response contained no choices"),
		}
	}

	o.log.WithFields(logrus.Fields{
		"model":         model,
		"input_tokens":  resp.Usage.PromptTokens,
		"output_tokens": resp.Usage.CompletionTokens,
	}).Debug("completion ok")
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAI) classify(ctx context.Context, err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return KindTimeout
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode)
	}
	return KindUnknown
}
