package cli

// This file contains local test execution for running exactly the
// discovered tests of each test binary.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/model"
)

// executeLocalTest runs the matched tests of artifact in its package
// directory. Output is written to stdout and stderr.
func (a *App) executeLocalTest(ctx context.Context, artifact model.Artifact, args []string, stdout, stderr io.Writer) error {
	runArgs := append(artifact.RunArgs(), args...)

	a.logger.Debug().
		Str("binary", artifact.Artifact.Executable).
		Strs("args", runArgs).
		Msg("Starting local test execution")

	cmd := exec.CommandContext(ctx, artifact.Artifact.Executable, runArgs...)
	if artifact.Artifact.ManifestPath != "" {
		cmd.Dir = filepath.Dir(artifact.Artifact.ManifestPath)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		// Test failures are expected to return non-zero exit codes
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			a.logger.Info().
				Str("target", artifact.Artifact.Target.Name).
				Int("exit_code", exitErr.ExitCode()).
				Msg("Tests completed with failures")
			return fmt.Errorf("tests of %s failed with exit code %d", artifact.Artifact.Target.Name, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to execute %s: %w", artifact.Artifact.Executable, err)
	}

	a.logger.Info().
		Str("target", artifact.Artifact.Target.Name).
		Int("tests", len(artifact.Tests)).
		Msg("Tests completed successfully")
	return nil
}

// runTests executes every artifact with matching tests, one after the
// other, and keeps going after failures.
func (a *App) runTests(ctx *cli.Context) error {
	d, err := a.discover(ctx, model.RunTypeTest)
	if err != nil {
		return err
	}

	// Capture stdout and stderr for history while still displaying them
	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := io.MultiWriter(os.Stdout, &stdoutBuf)
	stderr := io.MultiWriter(os.Stderr, &stderrBuf)

	var errs []error
	for _, artifact := range d.result.Artifacts {
		if len(artifact.Tests) == 0 {
			a.logger.Debug().Str("target", artifact.Artifact.Target.Name).Msg("No matching tests, skipping")
			continue
		}
		fmt.Fprintf(stdout, "     Running %s\n", runCommand(artifact, ctx.Args().Tail()))
		if err := a.executeLocalTest(ctx.Context, artifact, ctx.Args().Tail(), stdout, stderr); err != nil {
			errs = append(errs, err)
		}
	}

	if d.result.TestCount() == 0 {
		a.logger.Warn().Str("name", d.name.String()).Msg("No tests matched")
	}

	err = errors.Join(append(errs, d.result.Err())...)
	if err != nil {
		d.run.ExitCode = 1
	}
	d.run.Duration = time.Since(d.run.Timestamp)

	files := append(d.files,
		history.File{Type: model.RunFileStdout, Name: "stdout.txt", Data: stdoutBuf.Bytes()},
		history.File{Type: model.RunFileStderr, Name: "test-stderr.txt", Data: stderrBuf.Bytes()},
	)
	a.recordRun(ctx.Context, d.run, files...)
	return err
}
