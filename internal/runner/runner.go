// Package runner executes the wrapped child command and captures its
// output and exit status.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// Result is one captured command execution.
type Result struct {
	Command  []string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// exitCodeNotStartable follows the shell convention for a command that
// could not be found or executed.
const exitCodeNotStartable = 127

// Run executes command, draining stdout and stderr concurrently, and
// returns the captured result. A non-zero child exit status is not an
// error here; the wrapper propagates it. An error is returned only when
// the child could not be started or its output could not be read.
func Run(ctx context.Context, command []string) (Result, error) {
	if len(command) == 0 {
		return Result{ExitCode: exitCodeNotStartable}, errors.New("no command given")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin = os.Stdin

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Command: command, ExitCode: exitCodeNotStartable}, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{Command: command, ExitCode: exitCodeNotStartable}, fmt.Errorf("creating stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{Command: command, ExitCode: exitCodeNotStartable}, fmt.Errorf("starting %s: %w", command[0], err)
	}

	// Both pipes must drain before Wait; a full pipe buffer would
	// deadlock the child.
	var outBytes, errBytes []byte
	g := new(errgroup.Group)
	g.Go(func() error {
		var readErr error
		outBytes, readErr = io.ReadAll(stdout)
		return readErr
	})
	g.Go(func() error {
		var readErr error
		errBytes, readErr = io.ReadAll(stderr)
		return readErr
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()
	duration := time.Since(start)

	result := Result{
		Command:  command,
		Stdout:   string(outBytes),
		Stderr:   string(errBytes),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: duration,
	}

	if readErr != nil {
		return result, fmt.Errorf("reading command output: %w", readErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			// Normal non-zero exit; the code is in the result.
			return result, nil
		}
		return result, fmt.Errorf("waiting for %s: %w", command[0], waitErr)
	}
	return result, nil
}
