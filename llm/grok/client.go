// Package grok implements the provider adapter for xAI's Grok models. Grok
// exposes an OpenAI-compatible chat completion API, so the adapter drives it
// through the OpenAI client with the x.ai base URL.
package grok

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	openai "github.com/sashabaranov/go-openai"

	"github.com/plandraft/plandraft"
)

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "grok-3"

	// DefaultBaseURL is xAI's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.x.ai/v1"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	Temperature float32
	TopP        float32
	MaxTokens   int

	// ReasoningEffort tunes how much reasoning time the model spends
	// ("low" or "high").
	ReasoningEffort string
}

// Client is a client for the Grok API.
type Client struct {
	client *openai.Client

	defaultModel string

	baseURL string

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

// WithBaseURL overrides the API endpoint. Useful for proxies.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTemperature sets the temperature parameter for text generation.
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// New creates a new client for the Grok API.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(plandraft.ErrMissingCredential, "grok requires an API key")
	}

	client := &Client{
		defaultModel: DefaultModel,
		baseURL:      DefaultBaseURL,
		params: generationParameters{
			Temperature: 0.7,
			TopP:        1.0,
		},
	}
	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = client.baseURL
	client.client = openai.NewClientWithConfig(config)

	return client, nil
}

// Session is a session for the Grok chat. It maintains the conversation
// state and handles message generation.
type Session struct {
	client *openai.Client

	defaultModel string

	tools []openai.Tool

	messages []openai.ChatCompletionMessage

	params generationParameters
}

// NewSession converts the registered tool specs to the OpenAI tool format
// and initializes a new chat session. The requested effort maps onto Grok's
// reasoning_effort parameter.
func (c *Client) NewSession(ctx context.Context, options ...plandraft.SessionOption) (plandraft.Session, error) {
	cfg := plandraft.NewSessionConfig(options...)

	specs := cfg.Tools()
	grokTools := make([]openai.Tool, len(specs))
	for i := range specs {
		grokTools[i] = convertTool(&specs[i])
	}

	params := c.params
	switch cfg.Effort() {
	case plandraft.EffortHigh:
		params.ReasoningEffort = "high"
	default:
		params.ReasoningEffort = "low"
	}

	session := &Session{
		client:       c.client,
		defaultModel: c.defaultModel,
		tools:        grokTools,
		params:       params,
	}

	if prompt := cfg.SystemPrompt(); prompt != "" {
		session.messages = append(session.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt,
		})
	}

	return session, nil
}

// convertInputs converts inputs to OpenAI chat messages. Consecutive user
// content accumulates into a single multi-part message; tool results become
// tool role messages keyed by their call ID.
func (s *Session) convertInputs(input ...plandraft.Input) ([]openai.ChatCompletionMessage, error) {
	var newMessages []openai.ChatCompletionMessage
	var userContentParts []openai.ChatMessagePart

	flushUser := func() {
		if len(userContentParts) > 0 {
			newMessages = append(newMessages, openai.ChatCompletionMessage{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: userContentParts,
			})
			userContentParts = nil
		}
	}

	for _, in := range input {
		switch v := in.(type) {
		case plandraft.Text:
			userContentParts = append(userContentParts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: string(v),
			})

		case plandraft.Image:
			imageURL := fmt.Sprintf("data:%s;base64,%s", v.MimeType(), v.Base64())
			userContentParts = append(userContentParts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: imageURL,
				},
			})

		case plandraft.FunctionResponse:
			flushUser()
			content := ""
			if v.Error != nil {
				content = fmt.Sprintf("Error message: %+v", v.Error)
			} else {
				data, err := json.Marshal(v.Data)
				if err != nil {
					return nil, goerr.Wrap(err, "failed to marshal function response")
				}
				content = string(data)
			}
			newMessages = append(newMessages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: v.ID,
			})

		default:
			return nil, goerr.Wrap(plandraft.ErrInvalidInput, "grok session received unsupported input")
		}
	}
	flushUser()

	return newMessages, nil
}

// createRequest creates a chat completion request with the current state.
func (s *Session) createRequest() openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       s.defaultModel,
		Messages:    s.messages,
		Tools:       s.tools,
		Temperature: s.params.Temperature,
		TopP:        s.params.TopP,
		MaxTokens:   s.params.MaxTokens,
	}
	if s.params.ReasoningEffort != "" {
		req.ReasoningEffort = s.params.ReasoningEffort
	}
	return req
}

// GenerateContent processes the input and generates a response. It handles
// both text messages and function responses.
func (s *Session) GenerateContent(ctx context.Context, input ...plandraft.Input) (*plandraft.Response, error) {
	newMessages, err := s.convertInputs(input...)
	if err != nil {
		return nil, err
	}
	s.messages = append(s.messages, newMessages...)

	resp, err := s.client.CreateChatCompletion(ctx, s.createRequest())
	if err != nil {
		return nil, goerr.Wrap(plandraft.ErrProvider, "grok chat completion failed", goerr.V("cause", err.Error()))
	}

	if len(resp.Choices) == 0 {
		return &plandraft.Response{
			Texts:         []string{},
			FunctionCalls: []*plandraft.FunctionCall{},
		}, nil
	}

	message := resp.Choices[0].Message
	s.messages = append(s.messages, message)

	response := &plandraft.Response{
		Texts:         make([]string, 0),
		FunctionCalls: make([]*plandraft.FunctionCall, 0),
		InputToken:    resp.Usage.PromptTokens,
		OutputToken:   resp.Usage.CompletionTokens,
	}

	if message.Content != "" {
		response.Texts = append(response.Texts, message.Content)
	}

	for _, toolCall := range message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &args); err != nil {
			return nil, goerr.Wrap(plandraft.ErrProviderResponse, "failed to unmarshal function arguments",
				goerr.V("tool", toolCall.Function.Name), goerr.V("cause", err.Error()))
		}

		response.FunctionCalls = append(response.FunctionCalls, &plandraft.FunctionCall{
			ID:        toolCall.ID,
			Name:      toolCall.Function.Name,
			Arguments: args,
		})
	}

	return response, nil
}
