package plandraft

// ToolCall is a structured, named operation with arguments that a provider
// requested be executed. It is immutable once issued by a provider turn.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolStatus is the outcome status of a tool execution.
type ToolStatus string

const (
	StatusOK    ToolStatus = "ok"
	StatusError ToolStatus = "error"
)

// ToolResult is the outcome of a single tool call. Produced exactly once per
// ToolCall. A StatusError result always carries a non-empty Message.
type ToolResult struct {
	Status ToolStatus `json:"status"`

	// Data is the structured payload returned by the tool.
	Data map[string]any `json:"data,omitempty"`

	// WhatChanged is a human-readable diff of the backend state mutation.
	WhatChanged string `json:"whatChanged,omitempty"`

	// StateForLLM is a textual snapshot of the backend state, folded into the
	// next conversation turn so the model can observe its own progress.
	StateForLLM string `json:"stateForLLM,omitempty"`

	// Message describes the failure when Status is StatusError.
	Message string `json:"message,omitempty"`
}

// ToolCallRecord pairs a call with its result. Records are appended to an
// ordered history for the lifetime of one generation request and never
// mutated after append.
type ToolCallRecord struct {
	Call   ToolCall   `json:"call"`
	Result ToolResult `json:"result"`
}

// GenerationResult is the outcome of one feedback-loop run. It is created
// once per top-level request and owned solely by that request.
type GenerationResult struct {
	Success bool `json:"success"`

	// ToolCallHistory is the ordered, append-only record of every tool call
	// executed during the run.
	ToolCallHistory []ToolCallRecord `json:"toolCallHistory"`

	// FinalMessage is the provider's last natural-language answer, if any.
	FinalMessage string `json:"finalMessage,omitempty"`

	// Iterations is the number of loop iterations consumed.
	Iterations int `json:"iterations"`

	// Error carries the provider failure message when the loop aborted.
	Error string `json:"error,omitempty"`
}
