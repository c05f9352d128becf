package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"rfr/internal/engine"
)

// waitDelay bounds how long a killed command may keep its output pipes open
const waitDelay = time.Second

// CommandStep runs a shell command and checks its exit code and output
type CommandStep struct {
	Command string
	// Env entries (KEY=value) are appended to the current environment
	Env []string
	Dir string
	// ExpectExit is the required exit code
	ExpectExit int
	// ExpectOutput, when set, must appear in the trimmed combined output
	ExpectOutput string
}

func (c *CommandStep) String() string {
	return "run: " + c.Command
}

// Run executes the command with sh -c. A mismatching exit code or output is
// returned as an *engine.AssertionError.
func (c *CommandStep) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", c.Command)

	// Set environment variables
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, c.Env...)

	// Set working directory
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay

	output, err := cmd.CombinedOutput()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("failed to start %q: %w", c.Command, err)
		}
		exitCode = exitErr.ExitCode()
	}

	out := strings.TrimSpace(string(output))
	if exitCode != c.ExpectExit {
		return engine.NewAssertionError(
			fmt.Sprintf("exit code %d, expected %d: %s", exitCode, c.ExpectExit, lastLine(out)),
			c.ExpectExit, exitCode)
	}
	if c.ExpectOutput != "" && !strings.Contains(out, c.ExpectOutput) {
		return engine.NewAssertionError(
			fmt.Sprintf("output does not contain %q", c.ExpectOutput),
			c.ExpectOutput, out)
	}
	return nil
}

func lastLine(s string) string {
	if s == "" {
		return "no output"
	}
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
