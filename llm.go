package plandraft

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
)

// LLMClient is a client for one LLM provider. Implementations live in
// llm/gemini, llm/claude and llm/grok. Clients are constructed explicitly
// with injected credentials; there is no process-wide singleton.
type LLMClient interface {
	NewSession(ctx context.Context, options ...SessionOption) (Session, error)
}

// Session is one conversation with a provider. It owns the provider-native
// message history; callers only append inputs and read canonical responses.
type Session interface {
	GenerateContent(ctx context.Context, input ...Input) (*Response, error)
}

// FunctionCall is a canonical tool call extracted from a provider response.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Response is the canonical response shape for every provider: either final
// text, or one or more tool calls, or both.
type Response struct {
	Texts         []string
	FunctionCalls []*FunctionCall
	InputToken    int
	OutputToken   int
}

func (r *Response) HasData() bool {
	return len(r.Texts) > 0 || len(r.FunctionCalls) > 0
}

// Input is one element of a conversation turn.
type Input interface {
	isInput() restrictedValue
	LogValue() slog.Value
	String() string
}

type restrictedValue struct{}

// Text is a text input as prompt.
type Text string

func (t Text) isInput() restrictedValue { return restrictedValue{} }
func (t Text) LogValue() slog.Value     { return slog.StringValue(string(t)) }
func (t Text) String() string           { return string(t) }

// FunctionResponse is the result of a tool call, fed back to the provider.
type FunctionResponse struct {
	ID    string
	Name  string
	Data  map[string]any
	Error error
}

func (f FunctionResponse) isInput() restrictedValue { return restrictedValue{} }

func (f FunctionResponse) String() string {
	if f.Error != nil {
		return f.Name + " (error: " + f.Error.Error() + ")"
	}
	return f.Name + " (success)"
}

func (f FunctionResponse) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("id", f.ID),
		slog.String("name", f.Name),
	}
	if f.Data != nil {
		attrs = append(attrs, slog.Any("data", f.Data))
	}
	if f.Error != nil {
		attrs = append(attrs, slog.String("error", f.Error.Error()))
	}
	return slog.GroupValue(attrs...)
}

// ImageMimeType represents supported MIME types for images.
type ImageMimeType string

const (
	ImageMimeTypeJPEG ImageMimeType = "image/jpeg"
	ImageMimeTypePNG  ImageMimeType = "image/png"
	ImageMimeTypeWebP ImageMimeType = "image/webp"
)

// Image is an image input, used by the visual validator to send rendered
// floor-plan views to a vision-capable model.
type Image struct {
	data     []byte
	mimeType ImageMimeType
}

// NewImage creates an image input. Data must be the raw bytes, not base64.
func NewImage(mimeType ImageMimeType, data []byte) Image {
	return Image{data: data, mimeType: mimeType}
}

func (i Image) Data() []byte     { return i.data }
func (i Image) MimeType() string { return string(i.mimeType) }
func (i Image) Base64() string   { return base64.StdEncoding.EncodeToString(i.data) }

func (i Image) isInput() restrictedValue { return restrictedValue{} }
func (i Image) LogValue() slog.Value     { return slog.StringValue(i.String()) }

func (i Image) String() string {
	return fmt.Sprintf("image (%d bytes, %s)", len(i.data), i.mimeType)
}

// SessionConfig carries per-session settings shared by all providers.
type SessionConfig struct {
	systemPrompt string
	tools        []ToolSpec
	effort       Effort
}

// NewSessionConfig builds a session config from options.
func NewSessionConfig(options ...SessionOption) SessionConfig {
	cfg := SessionConfig{effort: EffortLow}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

func (c *SessionConfig) SystemPrompt() string { return c.systemPrompt }
func (c *SessionConfig) Tools() []ToolSpec    { return c.tools }
func (c *SessionConfig) Effort() Effort       { return c.effort }

// SessionOption configures a new session.
type SessionOption func(*SessionConfig)

// WithSessionSystemPrompt sets the system prompt for the session.
func WithSessionSystemPrompt(prompt string) SessionOption {
	return func(c *SessionConfig) {
		c.systemPrompt = prompt
	}
}

// WithSessionTools registers the tool specifications for the session.
func WithSessionTools(tools ...ToolSpec) SessionOption {
	return func(c *SessionConfig) {
		c.tools = append(c.tools, tools...)
	}
}

// WithSessionEffort sets the thinking effort tier for the session.
func WithSessionEffort(effort Effort) SessionOption {
	return func(c *SessionConfig) {
		c.effort = effort
	}
}
