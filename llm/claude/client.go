// Package claude implements the provider adapter for Anthropic's Claude
// models.
package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"

	"github.com/plandraft/plandraft"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = anthropic.ModelClaude3_5SonnetLatest

	defaultMaxTokens = 4096

	// highEffortMaxTokens gives design-heavy prompts more room to work.
	highEffortMaxTokens = 8192
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	Temperature float64
	TopP        float64
	MaxTokens   int64
}

// Client is a client for the Claude API. Credentials are injected at
// construction; there is no package-level singleton.
type Client struct {
	client *anthropic.Client

	defaultModel string

	params generationParameters
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// New creates a new client for the Claude API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(plandraft.ErrMissingCredential, "claude requires an API key")
	}

	client := &Client{
		defaultModel: DefaultModel,
		params: generationParameters{
			Temperature: 0.7,
			TopP:        1.0,
			MaxTokens:   defaultMaxTokens,
		},
	}
	for _, option := range options {
		option(client)
	}

	newClient := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	client.client = &newClient

	return client, nil
}

// Session is a session for the Claude chat. It maintains the conversation
// state and handles message generation.
type Session struct {
	client *anthropic.Client

	defaultModel string

	systemPrompt string

	tools []anthropic.ToolUnionParam

	messages []anthropic.MessageParam

	params generationParameters
}

// NewSession converts the registered tool specs to Claude's tool format and
// initializes a new chat session.
func (c *Client) NewSession(ctx context.Context, options ...plandraft.SessionOption) (plandraft.Session, error) {
	cfg := plandraft.NewSessionConfig(options...)

	specs := cfg.Tools()
	claudeTools := make([]anthropic.ToolUnionParam, len(specs))
	for i := range specs {
		claudeTools[i] = convertTool(&specs[i])
	}

	params := c.params
	if cfg.Effort() == plandraft.EffortHigh && params.MaxTokens < highEffortMaxTokens {
		params.MaxTokens = highEffortMaxTokens
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		systemPrompt: cfg.SystemPrompt(),
		tools:        claudeTools,
		params:       params,
	}

	return session, nil
}

// convertInputs converts inputs to Claude messages and tool results.
func (s *Session) convertInputs(input ...plandraft.Input) ([]anthropic.MessageParam, error) {
	var toolResults []anthropic.ContentBlockParamUnion
	var userBlocks []anthropic.ContentBlockParamUnion
	var messages []anthropic.MessageParam

	for _, in := range input {
		switch v := in.(type) {
		case plandraft.Text:
			userBlocks = append(userBlocks, anthropic.NewTextBlock(string(v)))

		case plandraft.Image:
			userBlocks = append(userBlocks, anthropic.NewImageBlockBase64(
				v.MimeType(),
				base64.StdEncoding.EncodeToString(v.Data()),
			))

		case plandraft.FunctionResponse:
			content := ""
			if v.Error != nil {
				content = v.Error.Error()
			} else {
				data, err := json.Marshal(v.Data)
				if err != nil {
					return nil, goerr.Wrap(err, "failed to marshal function response")
				}
				content = string(data)
			}
			toolResults = append(toolResults, anthropic.NewToolResultBlock(v.ID, content, v.Error != nil))

		default:
			return nil, goerr.Wrap(plandraft.ErrInvalidInput, "claude session received unsupported input")
		}
	}

	// Tool results must precede any follow-up text in the same user turn.
	blocks := append(toolResults, userBlocks...)
	if len(blocks) > 0 {
		messages = append(messages, anthropic.NewUserMessage(blocks...))
	}

	return messages, nil
}

// createRequest creates a message request with the current session state.
func (s *Session) createRequest(messages []anthropic.MessageParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       s.defaultModel,
		MaxTokens:   s.params.MaxTokens,
		Temperature: anthropic.Float(s.params.Temperature),
		TopP:        anthropic.Float(s.params.TopP),
		Tools:       s.tools,
		Messages:    messages,
	}
	if s.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: s.systemPrompt}}
	}
	return params
}

// processResponse converts a Claude response to the canonical shape.
func processResponse(resp *anthropic.Message) (*plandraft.Response, error) {
	response := &plandraft.Response{
		Texts:         make([]string, 0),
		FunctionCalls: make([]*plandraft.FunctionCall, 0),
	}
	response.InputToken = int(resp.Usage.InputTokens)
	response.OutputToken = int(resp.Usage.OutputTokens)

	for _, content := range resp.Content {
		textBlock := content.AsResponseTextBlock()
		if textBlock.Type == "text" {
			response.Texts = append(response.Texts, textBlock.Text)
		}

		toolUseBlock := content.AsResponseToolUseBlock()
		if toolUseBlock.Type == "tool_use" {
			var args map[string]any
			if err := json.Unmarshal([]byte(toolUseBlock.Input), &args); err != nil {
				return nil, goerr.Wrap(plandraft.ErrProviderResponse, "failed to unmarshal function arguments",
					goerr.V("tool", toolUseBlock.Name), goerr.V("cause", err.Error()))
			}

			response.FunctionCalls = append(response.FunctionCalls, &plandraft.FunctionCall{
				ID:        toolUseBlock.ID,
				Name:      toolUseBlock.Name,
				Arguments: args,
			})
		}
	}

	return response, nil
}

// GenerateContent processes the input and generates a response. It handles
// both text messages and function responses.
func (s *Session) GenerateContent(ctx context.Context, input ...plandraft.Input) (*plandraft.Response, error) {
	messages, err := s.convertInputs(input...)
	if err != nil {
		return nil, err
	}

	s.messages = append(s.messages, messages...)
	params := s.createRequest(s.messages)

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(plandraft.ErrProvider, "claude message creation failed", goerr.V("cause", err.Error()))
	}

	s.messages = append(s.messages, resp.ToParam())

	return processResponse(resp)
}
