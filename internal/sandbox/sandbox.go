package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"
)

// DefaultTimeout bounds a single execution
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when the process outlives its deadline
	ErrTimeout = errors.New("process took too long")
	// ErrNoCode is returned when the input holds no triple-quoted block
	ErrNoCode = errors.New("no triple-quoted code block found")
	// ErrKilled is returned by a run that was stopped by Kill
	ErrKilled = errors.New("process killed")
)

var tripleQuoted = regexp.MustCompile(`(?s)"""(.*?)"""`)

// ExtractCode returns the body of the first """...""" span in raw
func ExtractCode(raw string) (string, error) {
	m := tripleQuoted.FindStringSubmatch(raw)
	if m == nil {
		return "", ErrNoCode
	}
	return m[1], nil
}

// Executor runs code in a separate interpreter process.
// It offers no isolation beyond a wall-clock limit.
type Executor struct {
	interpreter string
	timeout     time.Duration

	mu      sync.Mutex
	running map[*exec.Cmd]bool // value is true once Kill has hit it
	killed  bool
}

// NewExecutor creates an executor; timeout <= 0 selects DefaultTimeout
func NewExecutor(interpreter string, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		interpreter: interpreter,
		timeout:     timeout,
		running:     make(map[*exec.Cmd]bool),
	}
}

// Kill terminates the process group of every run in flight, and of any run
// started afterwards. It must be called before the program exits, since the
// interpreter runs in its own process group and does not receive the
// terminal's signals.
func (e *Executor) Kill() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.killed = true
	for cmd := range e.running {
		e.running[cmd] = true
		killProcessGroup(cmd)
	}
}

func (e *Executor) track(cmd *exec.Cmd) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[cmd] = e.killed
	if e.killed {
		killProcessGroup(cmd)
	}
}

// untrack forgets cmd and reports whether Kill stopped it
func (e *Executor) untrack(cmd *exec.Cmd) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	killed := e.running[cmd]
	delete(e.running, cmd)
	return killed
}

// Timeout returns the per-run wall-clock limit
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Run writes code to a temporary file and executes it.
//
// A non-zero exit is not an error: the script's stderr (or stdout when stderr
// is empty) is returned so the caller can show the traceback to the model.
// On a clean exit stdout is returned, or stderr when stdout is empty.
// Exceeding the timeout kills the whole process group and returns ErrTimeout.
// Cancelling ctx does the same and returns ctx.Err().
func (e *Executor) Run(ctx context.Context, code string) (string, error) {
	tmp, err := os.CreateTemp("", "sandbox-*.py")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, e.interpreter, tmp.Name())
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	isolateProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to run %s: %w", e.interpreter, err)
	}
	e.track(cmd)
	err = cmd.Wait()
	killed := e.untrack(cmd)

	if stopErr := stopReason(err, killed, ctx.Err(), runCtx.Err(), e.timeout); stopErr != nil {
		return "", stopErr
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		if stderr.Len() > 0 {
			return stderr.String(), nil
		}
		return stdout.String(), nil
	case err != nil:
		return "", fmt.Errorf("failed to run %s: %w", e.interpreter, err)
	}

	if stdout.Len() == 0 {
		return stderr.String(), nil
	}
	return stdout.String(), nil
}

// stopReason reports why a failed run was stopped from outside, or nil when
// the script finished on its own. A clean exit is never a timeout, even if
// the deadline passed before the check.
func stopReason(waitErr error, killed bool, parentErr, runErr error, timeout time.Duration) error {
	if waitErr == nil {
		return nil
	}
	switch {
	case killed:
		return ErrKilled
	case parentErr != nil:
		return parentErr
	case errors.Is(runErr, context.DeadlineExceeded):
		return fmt.Errorf("%w (>%s)", ErrTimeout, timeout)
	}
	return nil
}
