package slicer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"printforge/internal/material"
)

// Result is the product of one slicing job.
type Result struct {
	PrintTime string
	GCode     string
	EngineLog string
}

// Runner stages mesh input, invokes the slicing engine under a timeout, and
// reads back the produced G-code. Engine availability is resolved once at
// construction and cached.
type Runner struct {
	engine     Engine
	timeout    time.Duration
	resolveErr error
}

// NewRunner resolves the engine binary and builds a runner around it. A
// runner with an unresolvable engine is still usable: every Run fails fast
// with ErrEngineUnavailable without touching the filesystem.
func NewRunner(enginePath string, timeout time.Duration) *Runner {
	r := &Runner{timeout: timeout}

	resolved, err := exec.LookPath(enginePath)
	if err != nil {
		r.resolveErr = fmt.Errorf("%w: %q is not installed or not in PATH", ErrEngineUnavailable, enginePath)
		return r
	}

	r.engine = &ExecEngine{Path: resolved}

	return r
}

// NewRunnerWithEngine wires an already-constructed engine, letting tests
// substitute a fake for the external process.
func NewRunnerWithEngine(engine Engine, timeout time.Duration) *Runner {
	return &Runner{engine: engine, timeout: timeout}
}

// Available reports whether the engine binary resolved at startup.
func (r *Runner) Available() bool {
	return r.resolveErr == nil
}

// Run executes one slicing job: stage input, invoke the engine, verify and
// read the output. Temp files are removed on every exit path; removal
// failures are logged and never override the primary error. A non-zero
// engine exit is not fatal by itself since the engine warns on its exit
// path; only a missing output file is.
func (r *Runner) Run(ctx context.Context, meshData []byte, meshExt string, cfg PrintConfig, profile material.Profile) (*Result, error) {
	if r.resolveErr != nil {
		return nil, r.resolveErr
	}

	jobID := uuid.NewString()
	log := slog.With("job", jobID)

	dir, err := os.MkdirTemp("", "slicejob-")
	if err != nil {
		return nil, fmt.Errorf("failed to stage slicing job: %w", err)
	}

	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Error("Failed to remove slicing temp dir", "dir", dir, "error", rmErr)
		}
	}()

	inputPath := filepath.Join(dir, "model."+meshExt)
	outputPath := filepath.Join(dir, "output.gcode")

	if err := os.WriteFile(inputPath, meshData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write mesh input: %w", err)
	}

	args := BuildArgs(cfg, profile, inputPath, outputPath)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log.Info("Invoking slicing engine", "material", cfg.Material, "nozzle", cfg.NozzleSize)

	engineLog, runErr := r.engine.Slice(runCtx, args)
	if errors.Is(runErr, ErrTimeout) {
		log.Error("Slicing engine timed out", "timeout", r.timeout)
		return nil, runErr
	}

	if runErr != nil {
		log.Warn("Slicing engine exited abnormally", "error", runErr)
	}

	if _, statErr := os.Stat(outputPath); statErr != nil {
		diag := strings.TrimSpace(engineLog)
		if diag == "" {
			diag = "no engine diagnostics"
		}

		return nil, fmt.Errorf("%w: %s", ErrMissingOutput, diag)
	}

	gcode, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine output: %w", err)
	}

	printTime := ExtractPrintTime(string(gcode))
	log.Info("Slicing finished", "printTime", printTime)

	return &Result{
		PrintTime: printTime,
		GCode:     string(gcode),
		EngineLog: engineLog,
	}, nil
}
