package slicer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrEngineUnavailable reports that the engine binary could not be
	// resolved at startup.
	ErrEngineUnavailable = errors.New("slicing engine binary not found")
	// ErrTimeout reports that the engine exceeded its wall-clock bound
	// and was terminated.
	ErrTimeout = errors.New("slicing engine timed out")
	// ErrMissingOutput reports that the engine finished without writing
	// the expected output file.
	ErrMissingOutput = errors.New("slicing engine produced no output file")
)

// Engine is the external slicing capability. It consumes a staged input
// file referenced from args and reports its combined stdout/stderr.
// Implementations must honor context cancellation.
type Engine interface {
	Slice(ctx context.Context, args []string) (string, error)
}

// ExecEngine invokes a slic3r-compatible binary as a subprocess.
type ExecEngine struct {
	Path string
}

func (e *ExecEngine) Slice(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, e.Path, args...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()

	// The context expiring means CommandContext killed the process;
	// whatever it wrote so far is not trustworthy.
	if ctx.Err() == context.DeadlineExceeded {
		return output.String(), fmt.Errorf("%w: %s", ErrTimeout, e.Path)
	}

	if err != nil {
		return output.String(), fmt.Errorf("engine exited abnormally: %w", err)
	}

	return output.String(), nil
}
