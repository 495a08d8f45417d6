package tools

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/itsharex/gpt-4-search/internal/sandbox"
)

// Runner executes a code snippet and returns its output
type Runner interface {
	Run(ctx context.Context, code string) (string, error)
}

// PythonTool implements PYTHON(code: string)
type PythonTool struct {
	runner Runner
	logger *zap.Logger
}

// NewPythonTool creates the PYTHON tool
func NewPythonTool(runner Runner, logger *zap.Logger) *PythonTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PythonTool{runner: runner, logger: logger.Named("python")}
}

func (t *PythonTool) Name() string { return "PYTHON" }

func (t *PythonTool) Args() string { return "(code: string)" }

func (t *PythonTool) Description() string {
	return "evaluates the code in a python interpreter, wrap code in triple quotes, wrap the answer in `print()`"
}

// Invoke runs the first triple-quoted block of raw.
// Execution failures come back as text so the model can correct itself;
// a timeout is returned as sandbox.ErrTimeout and a shutdown kill as
// sandbox.ErrKilled.
func (t *PythonTool) Invoke(ctx context.Context, raw string) (string, error) {
	code, err := sandbox.ExtractCode(raw)
	if err != nil {
		return "", err
	}

	out, err := t.runner.Run(ctx, code)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, sandbox.ErrTimeout), errors.Is(err, sandbox.ErrKilled), errors.Is(err, context.Canceled):
		return "", err
	default:
		t.logger.Error("execution failed", zap.Error(err))
		return err.Error() + "\ntry again and optimize the code", nil
	}
}
