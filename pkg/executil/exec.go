// Package executil provides shell execution utilities.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Executor runs external commands.
type Executor interface {
	// Run executes cmd with stdin attached (nil for none) and returns stdout.
	Run(ctx context.Context, stdin io.Reader, cmd string, args ...string) ([]byte, error)
}

// Shell runs script through `sh -c`.
func Shell(ctx context.Context, e Executor, stdin io.Reader, script string) ([]byte, error) {
	return e.Run(ctx, stdin, "sh", "-c", script)
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

// Run executes a command and returns its stdout. On failure the returned
// error carries the command's trimmed stderr.
func (e *RealExecutor) Run(ctx context.Context, stdin io.Reader, cmd string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	c := exec.CommandContext(ctx, cmd, args...)
	c.Stdin = stdin
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("exec %s: %w: %s", cmd, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("exec %s: %w", cmd, err)
	}

	return stdout.Bytes(), nil
}
