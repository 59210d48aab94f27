// Package toolrunner executes collaborator binaries as blocking commands,
// forwarding their output line by line and bounding each invocation with the
// configured timeout.
package toolrunner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Executor abstracts command execution for testability.
type Executor interface {
	// Run starts binary with args and blocks until it exits. Every stdout
	// and stderr line is forwarded to onLine when non-nil.
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
	// Output runs binary with args and returns its combined output.
	Output(ctx context.Context, binary string, args []string) (string, error)
}

// Runner is the production Executor. Timeout bounds each invocation; zero
// means unbounded.
type Runner struct {
	Timeout time.Duration
}

// New constructs a Runner with the given per-invocation timeout in seconds.
func New(timeoutSeconds int) Runner {
	return Runner{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

func (r Runner) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}

	var group errgroup.Group
	scan := func(reader io.Reader) func() error {
		return func() error {
			scanner := bufio.NewScanner(reader)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				if onLine != nil {
					onLine(scanner.Text())
				}
			}
			return scanner.Err()
		}
	}
	group.Go(scan(stdout))
	group.Go(scan(stderr))

	scanErr := group.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		if runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out after %s", binary, r.Timeout)
		}
		return fmt.Errorf("%s: %w", binary, waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("scan %s output: %w", binary, scanErr)
	}
	return nil
}

func (r Runner) Output(ctx context.Context, binary string, args []string) (string, error) {
	var lines []string
	if err := r.Run(ctx, binary, args, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		return strings.Join(lines, "\n"), err
	}
	return strings.Join(lines, "\n"), nil
}
