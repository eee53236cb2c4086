// Package process runs external tools and streams their output line by line
// while they execute.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

const maxLineSize = 1024 * 1024

// Command describes a subprocess invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir string
}

// LineHandler receives one line of output without its trailing newline.
type LineHandler func(line string)

// Runner starts a command, streams its stdout and stderr to the handlers as
// lines arrive and waits for it to exit. A non-zero exit is reported as
// *ExitError.
type Runner interface {
	Run(ctx context.Context, cmd Command, stdout, stderr LineHandler) error
}

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Name string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Name, e.Code)
}

// ExitCode returns the exit status carried by err, or -1 if err is not an
// *ExitError.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, c Command, stdout, stderr LineHandler) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", c.Name, err)
	}

	// Both pipes must be drained before Wait closes them.
	var g errgroup.Group
	g.Go(func() error { return scanLines(outPipe, stdout) })
	g.Go(func() error { return scanLines(errPipe, stderr) })
	scanErr := g.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			return &ExitError{Name: c.Name, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("%s failed: %w", c.Name, err)
	}

	if scanErr != nil {
		return fmt.Errorf("failed to read %s output: %w", c.Name, scanErr)
	}

	return nil
}

func scanLines(r io.Reader, handle LineHandler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if handle != nil {
			handle(scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}
