package plandraft

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultMaxIterations is the iteration budget when the caller does not set one.
	DefaultMaxIterations = 20

	// maxCorrectivePasses caps how many times a failed visual validation may
	// re-enter the loop with corrections.
	maxCorrectivePasses = 2
)

// Verdict is the outcome of a post-hoc validation of the generated plan.
type Verdict struct {
	Validated   bool
	Corrections string
}

// Validator checks the generated result after the loop reports success, e.g.
// by rendering the plan and asking a vision model. A non-validated verdict
// feeds its corrections back into the conversation.
type Validator interface {
	Validate(ctx context.Context) (*Verdict, error)
}

// Loop drives repeated prompt → provider call → tool execution cycles until
// the success criteria are met, the provider stops requesting tool calls, or
// the iteration budget is exhausted. One top-level caller owns the entire
// loop; iterations never run concurrently for the same request.
type Loop struct {
	llm LLMClient

	loopConfig
}

type loopConfig struct {
	maxIterations   int
	systemPrompt    string
	successCriteria []string
	executor        ToolExecutor
	validator       Validator
	logger          *slog.Logger
}

func (c *loopConfig) clone() *loopConfig {
	clone := *c
	clone.successCriteria = slices.Clone(c.successCriteria)
	return &clone
}

// Option configures a Loop, either at construction or per Run call.
type Option func(*loopConfig)

// WithMaxIterations sets the iteration budget (one provider turn plus its
// tool executions is one iteration). Default is DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(c *loopConfig) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// WithSystemPrompt sets the system prompt seeded into the session.
func WithSystemPrompt(prompt string) Option {
	return func(c *loopConfig) {
		c.systemPrompt = prompt
	}
}

// WithSuccessCriteria sets natural-language conditions the provider
// self-assesses against before the loop reports success.
func WithSuccessCriteria(criteria ...string) Option {
	return func(c *loopConfig) {
		c.successCriteria = append(c.successCriteria, criteria...)
	}
}

// WithExecutor sets the tool executor for the run.
func WithExecutor(executor ToolExecutor) Option {
	return func(c *loopConfig) {
		c.executor = executor
	}
}

// WithValidator sets the post-hoc validator. Optional.
func WithValidator(v Validator) Option {
	return func(c *loopConfig) {
		c.validator = v
	}
}

// WithLogger sets the logger. Default is a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *loopConfig) {
		c.logger = logger
	}
}

// NewLoop creates a feedback loop controller on top of an LLM client.
func NewLoop(llm LLMClient, options ...Option) *Loop {
	loop := &Loop{
		llm: llm,
		loopConfig: loopConfig{
			maxIterations: DefaultMaxIterations,
			systemPrompt:  DefaultSystemPrompt,
			logger:        slog.New(slog.DiscardHandler),
		},
	}
	for _, opt := range options {
		opt(&loop.loopConfig)
	}
	return loop
}

// Run executes the feedback loop for one prompt and returns the generation
// result. Budget exhaustion is a normal termination (Success=false, nil
// error); only provider failures return a non-nil error, with the partial
// history retained in the result.
func (l *Loop) Run(ctx context.Context, prompt string, options ...Option) (*GenerationResult, error) {
	cfg := l.loopConfig.clone()
	for _, opt := range options {
		opt(cfg)
	}

	requestID := uuid.New().String()
	logger := cfg.logger.With("request_id", requestID)
	ctx = ctxWithLogger(ctx, logger)

	result := &GenerationResult{ToolCallHistory: []ToolCallRecord{}}

	var specs []ToolSpec
	if cfg.executor != nil {
		var err error
		specs, err = cfg.executor.Specs(ctx)
		if err != nil {
			result.Error = err.Error()
			return result, goerr.Wrap(err, "failed to load tool specs")
		}
	}

	effort := EffortForPrompt(prompt)
	logger.Info("starting generation loop",
		"prompt", prompt,
		"max_iterations", cfg.maxIterations,
		"effort", effort.String(),
		"tools", len(specs),
		"criteria", len(cfg.successCriteria),
	)

	session, err := l.llm.NewSession(ctx,
		WithSessionSystemPrompt(cfg.systemPrompt),
		WithSessionTools(specs...),
		WithSessionEffort(effort),
	)
	if err != nil {
		result.Error = err.Error()
		return result, goerr.Wrap(err, "failed to create provider session")
	}

	input := []Input{Text(prompt)}
	awaitingDone := false
	correctivePasses := 0

	for i := 0; i < cfg.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			return result, goerr.Wrap(err, "generation canceled")
		}

		result.Iterations = i + 1
		logger.Debug("loop iteration", "iteration", i, "input", len(input))

		resp, err := session.GenerateContent(ctx, input...)
		if err != nil {
			result.Error = err.Error()
			return result, goerr.Wrap(ErrProvider, "provider turn failed", goerr.V("iteration", i), goerr.V("cause", err.Error()))
		}

		if len(resp.FunctionCalls) > 0 {
			awaitingDone = false
			input = l.executeCalls(ctx, cfg, resp.FunctionCalls, result)
			continue
		}

		finalText := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
		if finalText != "" {
			result.FinalMessage = finalText
		}

		if awaitingDone {
			if containsToken(finalText, "DONE") {
				result.Success = true
			} else {
				// Criteria not met yet: push the model back to work.
				input = []Input{Text("The success criteria are not yet satisfied. Continue working on the plan using the available tools.")}
				awaitingDone = false
				continue
			}
		} else if len(cfg.successCriteria) > 0 {
			input = []Input{Text(criteriaPrompt(cfg.successCriteria))}
			awaitingDone = true
			continue
		} else {
			result.Success = !indicatesFailure(finalText)
		}

		if !result.Success {
			logger.Info("generation finished without success", "final_message", finalText)
			return result, nil
		}

		if cfg.validator == nil || correctivePasses >= maxCorrectivePasses {
			return result, nil
		}

		verdict, err := cfg.validator.Validate(ctx)
		if err != nil {
			// Validation is advisory: a broken validator never fails a
			// successful generation.
			logger.Warn("visual validation failed to run", "error", err)
			return result, nil
		}
		if verdict.Validated {
			logger.Info("visual validation passed", "corrective_passes", correctivePasses)
			return result, nil
		}

		correctivePasses++
		awaitingDone = false
		logger.Info("visual validation requested corrections",
			"pass", correctivePasses,
			"corrections", verdict.Corrections,
		)
		input = []Input{Text("Visual review of the rendered plan found problems. Fix them with the available tools:\n" + verdict.Corrections)}
	}

	logger.Info("iteration budget exhausted",
		"max_iterations", cfg.maxIterations,
		"tool_calls", len(result.ToolCallHistory),
	)
	result.Success = false
	return result, nil
}

// executeCalls runs the turn's tool calls sequentially in issue order (later
// calls may reference ids minted by earlier ones), appends one record per
// call, and builds the next turn's inputs with the state snapshots folded in.
func (l *Loop) executeCalls(ctx context.Context, cfg *loopConfig, calls []*FunctionCall, result *GenerationResult) []Input {
	logger := LoggerFromContext(ctx)

	input := make([]Input, 0, len(calls)+1)
	var states []string

	for _, call := range calls {
		toolCall := ToolCall{ID: call.ID, Name: call.Name, Arguments: call.Arguments}

		var toolResult ToolResult
		if cfg.executor == nil {
			toolResult = ToolResult{Status: StatusError, Message: "no tool executor configured"}
		} else {
			toolResult = cfg.executor.Execute(ctx, toolCall)
		}

		result.ToolCallHistory = append(result.ToolCallHistory, ToolCallRecord{
			Call:   toolCall,
			Result: toolResult,
		})

		if toolResult.Status == StatusError {
			logger.Info("tool call failed", "tool", call.Name, "message", toolResult.Message)
			input = append(input, FunctionResponse{
				ID:    call.ID,
				Name:  call.Name,
				Error: goerr.New(toolResult.Message, goerr.V("tool", call.Name)),
			})
			continue
		}

		logger.Debug("tool call succeeded", "tool", call.Name, "what_changed", toolResult.WhatChanged)

		// Annotate a copy: the appended record and the executor keep their
		// own maps untouched.
		data := toolResult.Data
		if toolResult.WhatChanged != "" {
			if data == nil {
				data = map[string]any{}
			} else {
				data = maps.Clone(data)
			}
			data["whatChanged"] = toolResult.WhatChanged
		}
		input = append(input, FunctionResponse{
			ID:   call.ID,
			Name: call.Name,
			Data: data,
		})

		if toolResult.StateForLLM != "" {
			states = append(states, toolResult.StateForLLM)
		}
	}

	// Fold the state snapshots into the same turn; the last snapshot is the
	// most recent view of the backend, so only that one is repeated.
	if len(states) > 0 {
		input = append(input, Text("Current plan state:\n"+states[len(states)-1]))
	}

	return input
}

func criteriaPrompt(criteria []string) string {
	var sb strings.Builder
	sb.WriteString("Check the plan against the success criteria below. If every criterion is satisfied, reply with the single word DONE. Otherwise describe what is missing.\n")
	for _, c := range criteria {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return sb.String()
}

// containsToken reports whether text contains word as a standalone token,
// case-insensitive.
func containsToken(text, word string) bool {
	upper := strings.ToUpper(text)
	word = strings.ToUpper(word)
	idx := 0
	for {
		i := strings.Index(upper[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(upper[start-1])
		afterOK := end == len(upper) || !isWordChar(upper[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || b == '_'
}

var failureMarkers = []string{"FAILED", "CANNOT", "UNABLE"}

// indicatesFailure reports whether a final answer explicitly signals failure.
func indicatesFailure(text string) bool {
	for _, marker := range failureMarkers {
		if containsToken(text, marker) {
			return true
		}
	}
	return false
}
