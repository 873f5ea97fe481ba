package llmrunner

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/atirut-w/gpt-code/harness"
)

// Runner drives the model's reasoning and tool-call loop for one REPL turn.
// It implements harness.Runner.
type Runner struct {
	provider     Provider
	tools        *harness.Registry
	logger       *zap.Logger
	emitter      *harness.Emitter
	retry        RetryPolicy
	model        string
	maxRounds    int
	loopWindow   int
	systemPrompt string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithEmitter sets the event emitter.
func WithEmitter(emitter *harness.Emitter) Option {
	return func(r *Runner) { r.emitter = emitter }
}

// WithRunnerModel overrides the model passed on each request.
func WithRunnerModel(model string) Option {
	return func(r *Runner) { r.model = model }
}

// WithMaxRounds caps the number of tool-call rounds per turn.
func WithMaxRounds(n int) Option {
	return func(r *Runner) { r.maxRounds = n }
}

// WithRetryPolicy sets the retry policy for provider calls.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(r *Runner) { r.retry = policy }
}

// WithLoopWindow sets the loop detection window size. Zero disables
// loop detection.
func WithLoopWindow(n int) Option {
	return func(r *Runner) { r.loopWindow = n }
}

// WithSystemPrompt overrides the generated system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(r *Runner) { r.systemPrompt = prompt }
}

// New creates a Runner backed by the given provider and tool registry.
func New(provider Provider, tools *harness.Registry, opts ...Option) *Runner {
	r := &Runner{
		provider:   provider,
		tools:      tools,
		logger:     zap.NewNop(),
		retry:      DefaultRetryPolicy(),
		maxRounds:  50,
		loopWindow: 10,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.systemPrompt == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		r.systemPrompt = BuildSystemPrompt(wd)
	}
	return r
}

// RunTurn runs the model until it produces a final answer or a limit is hit.
// The returned history is the complete transcript: the input history plus
// every assistant and tool item produced during the turn. On error the input
// history is untouched and the caller keeps its previous context.
func (r *Runner) RunTurn(ctx context.Context, history []harness.Item, tools []harness.Definition) (*harness.TurnResult, error) {
	working := make([]harness.Item, len(history))
	copy(working, history)

	policy := r.retryPolicyWithEvents()
	finalOutput := ""
	rounds := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("turn aborted: %w", err)
		}

		req := Request{
			Model:    r.model,
			Messages: historyToMessages(r.systemPrompt, working),
			Tools:    tools,
		}

		response, err := Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
			return r.provider.Complete(ctx, req)
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("turn aborted: %w", ctxErr)
			}
			r.logger.Warn("model call failed", zap.Error(err))
			r.emitter.Emit(harness.EventError, map[string]interface{}{"error": err.Error()})
			return nil, err
		}

		working = append(working, harness.NewAssistantItem(response.Text, response.ToolCalls))

		if len(response.ToolCalls) == 0 {
			finalOutput = response.Text
			break
		}

		rounds++
		if rounds > r.maxRounds {
			r.emitter.Emit(harness.EventRoundLimit, map[string]interface{}{"rounds": rounds})
			r.logger.Warn("tool round limit reached", zap.Int("max_rounds", r.maxRounds))
			working = append(working, harness.NewUserItem(
				fmt.Sprintf("Tool round limit of %d reached. Summarize what you have so far.", r.maxRounds)))

			// The capped response carries tool calls, not text, so one final
			// tool-less call produces the answer the operator sees.
			finalReq := Request{Model: r.model, Messages: historyToMessages(r.systemPrompt, working)}
			final, err := Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
				return r.provider.Complete(ctx, finalReq)
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, fmt.Errorf("turn aborted: %w", ctxErr)
				}
				r.emitter.Emit(harness.EventError, map[string]interface{}{"error": err.Error()})
				return nil, err
			}
			working = append(working, harness.NewAssistantItem(final.Text, nil))
			finalOutput = final.Text
			break
		}

		for _, tc := range response.ToolCalls {
			working = append(working, r.executeToolCall(tc))
		}

		if r.loopWindow > 0 && detectLoop(working, r.loopWindow) {
			warning := fmt.Sprintf("Loop detected: the last %d tool calls follow a repeating pattern. Try a different approach.", r.loopWindow)
			working = append(working, harness.NewUserItem(warning))
			r.emitter.Emit(harness.EventLoopDetected, map[string]interface{}{"message": warning})
			r.logger.Warn("tool call loop detected", zap.Int("window", r.loopWindow))
		}
	}

	return &harness.TurnResult{History: working, FinalOutput: finalOutput}, nil
}

// retryPolicyWithEvents wraps the configured policy so retry attempts are
// surfaced through the emitter and logger.
func (r *Runner) retryPolicyWithEvents() RetryPolicy {
	policy := r.retry
	inner := policy.OnRetry
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		r.logger.Warn("retrying model call",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		r.emitter.Emit(harness.EventRetry, map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if inner != nil {
			inner(err, attempt, delay)
		}
	}
	return policy
}

// executeToolCall handles the full tool execution pipeline:
// lookup -> execute -> truncate -> record.
func (r *Runner) executeToolCall(tc harness.ToolCall) harness.Item {
	r.emitter.Emit(harness.EventToolCallStart, map[string]interface{}{
		"tool_name": tc.Name,
		"call_id":   tc.ID,
	})

	registered := r.tools.Get(tc.Name)
	if registered == nil {
		msg := fmt.Sprintf("Unknown tool: %s", tc.Name)
		r.emitter.Emit(harness.EventToolCallEnd, map[string]interface{}{
			"call_id": tc.ID,
			"error":   msg,
		})
		return harness.NewToolItem(tc.ID, tc.Name, msg, true)
	}

	result := r.runExecutor(registered, tc)
	output := result.Render()
	truncated := harness.TruncateToolOutput(output, tc.Name)

	r.emitter.Emit(harness.EventToolCallEnd, map[string]interface{}{
		"call_id":  tc.ID,
		"output":   output, // full untruncated output
		"is_error": result.IsError(),
	})

	return harness.NewToolItem(tc.ID, tc.Name, truncated, result.IsError())
}

// runExecutor invokes the tool executor, converting panics and Go errors
// into error results so a misbehaving tool cannot end the turn.
func (r *Runner) runExecutor(registered *harness.RegisteredTool, tc harness.ToolCall) (result harness.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked",
				zap.String("tool", tc.Name),
				zap.Any("panic", rec))
			result = harness.ErrorResultf("tool %s panicked: %v", tc.Name, rec)
		}
	}()

	res, err := registered.Executor(tc.Arguments)
	if err != nil {
		return harness.ErrorResultf("tool %s failed: %v", tc.Name, err)
	}
	return res
}
