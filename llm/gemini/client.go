// Package gemini implements the provider adapter for Google's Gemini models.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/plandraft/plandraft"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const (
	// lowEffortThinkingBudget disables thinking for routine prompts.
	lowEffortThinkingBudget int32 = 0

	// highEffortThinkingBudget lets the model pick its own thinking budget.
	highEffortThinkingBudget int32 = -1
)

// Client is a client for the Gemini API using the API-key backend.
type Client struct {
	// client is the underlying Gemini client.
	client *genai.Client

	// defaultModel is the model to use for chat completions.
	// It can be overridden using WithModel option.
	defaultModel string

	// generationConfig contains the default generation parameters.
	generationConfig *genai.GenerateContentConfig
}

// Option is a configuration option for the Gemini client.
type Option func(*Client)

// WithModel sets the model to use for text generation.
func WithModel(model string) Option {
	return func(c *Client) {
		c.defaultModel = model
	}
}

// WithTemperature sets the temperature parameter for text generation.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.generationConfig.Temperature = &temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.generationConfig.MaxOutputTokens = maxTokens
	}
}

// New creates a new client for the Gemini API with an API key.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(plandraft.ErrMissingCredential, "gemini requires an API key")
	}

	client := &Client{
		defaultModel:     DefaultModel,
		generationConfig: &genai.GenerateContentConfig{},
	}
	for _, option := range options {
		option(client)
	}

	newClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}

	client.client = newClient
	return client, nil
}

// NewSession creates a new session for the Gemini API. It converts the
// registered tool specs to Gemini's tool format and applies the requested
// effort as a thinking budget.
func (c *Client) NewSession(ctx context.Context, options ...plandraft.SessionOption) (plandraft.Session, error) {
	cfg := plandraft.NewSessionConfig(options...)

	config := &genai.GenerateContentConfig{}
	*config = *c.generationConfig

	budget := lowEffortThinkingBudget
	if cfg.Effort() == plandraft.EffortHigh {
		budget = highEffortThinkingBudget
	}
	config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}

	if prompt := cfg.SystemPrompt(); prompt != "" {
		config.SystemInstruction = &genai.Content{
			Role: "system",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		}
	}

	if specs := cfg.Tools(); len(specs) > 0 {
		declarations := make([]*genai.FunctionDeclaration, len(specs))
		for i := range specs {
			declarations[i] = convertTool(&specs[i])
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	return &Session{
		client: c.client,
		model:  c.defaultModel,
		config: config,
	}, nil
}

// Session is a session for the Gemini chat. It maintains the conversation
// state and handles message generation.
type Session struct {
	client *genai.Client

	model string

	config *genai.GenerateContentConfig

	// contents is the accumulated conversation, oldest first.
	contents []*genai.Content
}

// convertInputs converts inputs to Gemini parts.
func (s *Session) convertInputs(input ...plandraft.Input) ([]*genai.Part, error) {
	parts := make([]*genai.Part, 0, len(input))

	for _, in := range input {
		switch v := in.(type) {
		case plandraft.Text:
			parts = append(parts, &genai.Part{Text: string(v)})

		case plandraft.Image:
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{
					MIMEType: v.MimeType(),
					Data:     v.Data(),
				},
			})

		case plandraft.FunctionResponse:
			response := v.Data
			if v.Error != nil {
				response = map[string]any{
					"error_message": fmt.Sprintf("%+v", v.Error),
				}
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     v.Name,
					Response: response,
				},
			})

		default:
			return nil, goerr.Wrap(plandraft.ErrInvalidInput, "gemini session received unsupported input")
		}
	}
	return parts, nil
}

// processResponse converts a Gemini response to the canonical shape.
func processResponse(resp *genai.GenerateContentResponse) (*plandraft.Response, error) {
	if len(resp.Candidates) == 0 {
		return &plandraft.Response{}, nil
	}

	response := &plandraft.Response{
		Texts:         make([]string, 0),
		FunctionCalls: make([]*plandraft.FunctionCall, 0),
	}

	if resp.UsageMetadata != nil {
		response.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		response.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	for _, candidate := range resp.Candidates {
		if candidate.FinishReason != "" {
			if strings.Contains(string(candidate.FinishReason), "MALFORMED_FUNCTION_CALL") {
				return nil, goerr.Wrap(plandraft.ErrProviderResponse, "malformed function call")
			}
			if strings.Contains(string(candidate.FinishReason), "PROHIBITED_CONTENT") {
				return nil, goerr.Wrap(plandraft.ErrProviderResponse, "prohibited content")
			}
		}

		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				response.Texts = append(response.Texts, part.Text)
			}

			if part.FunctionCall != nil {
				// Gemini does not assign call IDs, so mint one.
				fc := &plandraft.FunctionCall{
					ID:        fmt.Sprintf("%s_%d", part.FunctionCall.Name, time.Now().UnixNano()),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				}
				response.FunctionCalls = append(response.FunctionCalls, fc)
			}
		}
	}

	return response, nil
}

// GenerateContent generates content based on the input.
func (s *Session) GenerateContent(ctx context.Context, input ...plandraft.Input) (*plandraft.Response, error) {
	parts, err := s.convertInputs(input...)
	if err != nil {
		return nil, err
	}
	if len(parts) > 0 {
		s.contents = append(s.contents, &genai.Content{
			Role:  "user",
			Parts: parts,
		})
	}

	result, err := s.client.Models.GenerateContent(ctx, s.model, s.contents, s.config)
	if err != nil {
		return nil, goerr.Wrap(plandraft.ErrProvider, "gemini content generation failed", goerr.V("cause", err.Error()))
	}

	response, err := processResponse(result)
	if err != nil {
		return nil, err
	}

	assistantParts := make([]*genai.Part, 0)
	for _, text := range response.Texts {
		assistantParts = append(assistantParts, &genai.Part{Text: text})
	}
	for _, fc := range response.FunctionCalls {
		assistantParts = append(assistantParts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				Name: fc.Name,
				Args: fc.Arguments,
			},
		})
	}
	if len(assistantParts) > 0 {
		s.contents = append(s.contents, &genai.Content{
			Role:  "model",
			Parts: assistantParts,
		})
	}

	return response, nil
}
