package networking

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/maksimkurb/fw-ipsets/src/internal/log"
	"github.com/maksimkurb/fw-ipsets/src/internal/utils"
)

// CommandRunner executes external tools.
//
// Run returns the combined stdout and stderr, Output returns stdout only
// (stderr is kept for the error message). Both return a *CommandError when the
// tool cannot be started or exits with a non-zero status.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandError describes a failed tool invocation.
type CommandError struct {
	Cmdline string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	output := strings.TrimSpace(e.Output)
	if output == "" {
		return fmt.Sprintf("`%s` failed: %v", e.Cmdline, e.Err)
	}
	return fmt.Sprintf("`%s` failed: %v: %s", e.Cmdline, e.Err, output)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs tools with os/exec. A positive Timeout bounds every invocation.
type ExecRunner struct {
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given per-invocation timeout (0 disables it).
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	log.Debugf("Running: %s", cmdline(name, args))
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, &CommandError{Cmdline: cmdline(name, args), Output: string(out), Err: contextErr(ctx, err)}
	}
	return out, nil
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	log.Debugf("Running: %s", cmdline(name, args))
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, &CommandError{Cmdline: cmdline(name, args), Output: stderr.String(), Err: contextErr(ctx, err)}
	}
	return out, nil
}

func (r *ExecRunner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

// contextErr reports the deadline or cancellation instead of the "signal: killed" it causes.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}

// runScript writes script to a fresh temp file and runs `name args... <file>`.
// The file is removed whatever the outcome.
func runScript(ctx context.Context, runner CommandRunner, pattern string, script []byte, name string, args ...string) error {
	path, cleanup, err := utils.WriteTempFile(pattern, script)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Debugf("Applying %d-byte script %s", len(script), path)
	_, err = runner.Run(ctx, name, append(args, path)...)
	return err
}

func cmdline(name string, args []string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// CheckExecutable verifies that the tool is present in PATH.
func CheckExecutable(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("failed to find %s command: %v", name, err)
	}
	return nil
}
