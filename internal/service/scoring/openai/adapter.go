// Package openai provides a scoring adapter backed by the OpenAI chat
// completions API with a JSON-schema constrained response.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"ai-interview-orchestrator/internal/service/scoring"
)

const defaultModel = "gpt-4o-mini"

// feedbackSchema constrains the model output to the feedback shape. The
// backend is still treated as fallible; the pipeline re-validates.
var feedbackSchema = jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"totalScore": {Type: jsonschema.Integer},
		"categoryScores": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"name":    {Type: jsonschema.String},
					"score":   {Type: jsonschema.Integer},
					"comment": {Type: jsonschema.String},
				},
				Required: []string{"name", "score", "comment"},
			},
		},
		"strengths":           {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		"areasForImprovement": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
		"finalAssessment":     {Type: jsonschema.String},
	},
	Required: []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
}

// Adapter implements scoring.Adapter using OpenAI chat completions.
type Adapter struct {
	client  *goopenai.Client
	model   string
	timeout time.Duration
}

// New creates an OpenAI scoring adapter. Model defaults to gpt-4o-mini.
func New(apiKey, model string, timeout time.Duration) (*Adapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	if model == "" {
		model = defaultModel
	}
	return &Adapter{
		client:  goopenai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}, nil
}

// Generate performs one schema-constrained completion and returns the raw
// JSON content of the first choice.
func (a *Adapter) Generate(ctx context.Context, req scoring.Request) ([]byte, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: a.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: 0.2,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &goopenai.ChatCompletionResponseFormatJSONSchema{
				Name:   "interview_feedback",
				Schema: &feedbackSchema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	return []byte(resp.Choices[0].Message.Content), nil
}
