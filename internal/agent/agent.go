package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/itsharex/gpt-4-search/internal/conversation"
	"github.com/itsharex/gpt-4-search/internal/tools"
)

// DefaultMaxSteps caps model calls per query
const DefaultMaxSteps = 15

// ErrStepLimit is returned when the model keeps calling tools past the step cap
var ErrStepLimit = errors.New("step limit reached without a final answer")

// Model is a chat completion backend.
// A non-nil onToken requests streaming.
type Model interface {
	Chat(ctx context.Context, msgs []conversation.Message, onToken func(string)) (string, error)
}

// Stream receives the model's output while it is generated
type Stream interface {
	WriteToken(token string)
	EndResponse()
}

// Config holds the agent's dependencies
type Config struct {
	Model    Model
	Tools    *tools.Registry
	Session  *conversation.Session
	Stream   Stream
	Logger   *zap.Logger
	MaxSteps int // 0 means unlimited
}

// Agent drives the model through tool calls until it produces an answer
type Agent struct {
	model    Model
	tools    *tools.Registry
	session  *conversation.Session
	stream   Stream
	logger   *zap.Logger
	maxSteps int
}

// New creates an agent. A nil Session starts a fresh one.
func New(cfg Config) *Agent {
	if cfg.Session == nil {
		cfg.Session = conversation.NewSession()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MaxSteps < 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	return &Agent{
		model:    cfg.Model,
		tools:    cfg.Tools,
		session:  cfg.Session,
		stream:   cfg.Stream,
		logger:   cfg.Logger.Named("agent"),
		maxSteps: cfg.MaxSteps,
	}
}

// Session returns the conversation the agent appends to
func (a *Agent) Session() *conversation.Session {
	return a.session
}

// Run answers query. When a previous query left messages behind, they are
// first condensed into a summary that seeds the new session.
//
// Tool errors end the run and are returned as is; the session keeps whatever
// was appended before the failure.
func (a *Agent) Run(ctx context.Context, query string) (string, error) {
	var summary string
	if !a.session.IsEmpty() {
		s, err := a.summarize(ctx)
		if err != nil {
			return "", err
		}
		summary = s
		a.session.Reset()
	}

	prompt, err := InstructionPrompt(query, a.tools.All(), summary)
	if err != nil {
		return "", err
	}
	a.session.AddUserMessage(prompt)

	log := a.logger.With(zap.String("session", a.session.ID()))
	for step := 1; a.maxSteps == 0 || step <= a.maxSteps; step++ {
		resp, err := a.model.Chat(ctx, a.session.Messages(), a.onToken())
		if a.stream != nil {
			a.stream.EndResponse()
		}
		if err != nil {
			return "", err
		}
		a.session.AddAssistantMessage(resp)

		call, ok := ParseCall(resp)
		if !ok {
			log.Info("no function call, so it is the answer", zap.Int("step", step))
			return resp, nil
		}
		tool, ok := a.tools.Lookup(call.Name)
		if !ok {
			log.Warn("unknown function, treating reply as the answer",
				zap.String("function", call.Name), zap.Int("step", step))
			return resp, nil
		}

		log.Info("tool-call", zap.String("tool", call.Name), zap.String("args", call.Args), zap.Int("step", step))
		result, err := tool.Invoke(ctx, call.Args)
		if err != nil {
			return "", fmt.Errorf("%s: %w", call.Name, err)
		}

		wrapped := ToolResult(result)
		log.Info("tool-result", zap.String("tool", call.Name), zap.String("result", wrapped))
		a.session.AddAssistantMessage(wrapped)
	}

	log.Warn("step limit reached", zap.Int("max_steps", a.maxSteps))
	return "", ErrStepLimit
}

func (a *Agent) summarize(ctx context.Context) (string, error) {
	n := a.session.Len()
	a.session.AddUserMessage(SummarizeDirective())

	summary, err := a.model.Chat(ctx, a.session.Messages(), nil)
	if err != nil {
		a.session.Truncate(n)
		return "", fmt.Errorf("failed to summarize previous session: %w", err)
	}

	a.logger.Info("summarization",
		zap.String("session", a.session.ID()),
		zap.String("summary", summary),
	)
	return summary, nil
}

func (a *Agent) onToken() func(string) {
	if a.stream == nil {
		return func(string) {}
	}
	return a.stream.WriteToken
}
