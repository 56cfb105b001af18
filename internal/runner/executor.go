// Package runner executes the external analysis tools (card maker,
// combine) and relays their output to the log.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/t3mu-analysis/limitscan/internal/monitoring"
)

const waitDelay = 10 * time.Second

// Commander runs an external program and returns its combined output.
type Commander interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Command string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exit status %d", e.Command, e.Code)
}

// Executor runs commands locally. Programs are started directly rather
// than through a shell, so selection strings need no quoting.
type Executor struct {
	// DryRun logs each command line instead of running it.
	DryRun bool
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
	// Stdout, when set, receives a copy of every command's output.
	Stdout io.Writer
}

// NewExecutor creates a new executor.
func NewExecutor(dir string, dryRun bool) *Executor {
	return &Executor{Dir: dir, DryRun: dryRun}
}

// Run executes name with args and waits for it to finish.
func (e *Executor) Run(ctx context.Context, name string, args ...string) (string, error) {
	line := CommandLine(name, args...)
	if e.DryRun {
		monitoring.Logf("[DRY-RUN] Would execute: %s", line)
		return "", nil
	}

	monitoring.Logf(">>> %s", line)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir
	// Children that outlive a cancelled command must not hold Wait open.
	cmd.WaitDelay = waitDelay
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}

	var buf bytes.Buffer
	relay := &monitoring.RelayWriter{}
	writers := []io.Writer{&buf, relay}
	if e.Stdout != nil {
		writers = append(writers, e.Stdout)
	}
	cmd.Stdout = io.MultiWriter(writers...)
	cmd.Stderr = cmd.Stdout

	err := cmd.Run()
	relay.Flush()
	output := buf.String()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, fmt.Errorf("%s: %w", line, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, &ExitError{Command: line, Code: exitErr.ExitCode(), Output: output}
		}
		return output, fmt.Errorf("%s: %w", line, err)
	}
	return output, nil
}

// CommandLine renders name and args as a shell-safe line for logs.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

// quote single-quotes s when it contains anything a shell would interpret.
func quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./=:,+@%", r):
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
