// Package build drives cargo and collects the artifacts and diagnostics it
// reports.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/perfgo/seacan/cargomsg"
	"github.com/perfgo/seacan/diagnostic"
	"github.com/perfgo/seacan/model"
)

// Result is what a successful build produced. Diagnostics holds the
// warnings and notes seen along the way.
type Result struct {
	Artifacts   []model.ExecutableArtifact
	Diagnostics []model.BuildDiagnostic
	// Malformed counts stdout lines that were not valid cargo messages.
	Malformed int
	Command   string
	Duration  time.Duration
}

// Compiler runs cargo builds.
type Compiler struct {
	logger       zerolog.Logger
	enricher     *diagnostic.Enricher
	onDiagnostic func(model.BuildDiagnostic)
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithEnricher replaces the default diagnostic enricher.
func WithEnricher(enricher *diagnostic.Enricher) CompilerOption {
	return func(c *Compiler) {
		c.enricher = enricher
	}
}

// OnDiagnostic registers a callback invoked for every diagnostic as it
// arrives, in stream order.
func OnDiagnostic(fn func(model.BuildDiagnostic)) CompilerOption {
	return func(c *Compiler) {
		c.onDiagnostic = fn
	}
}

// NewCompiler creates a Compiler.
func NewCompiler(logger zerolog.Logger, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		logger:   logger,
		enricher: diagnostic.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs cargo for req and returns the artifacts it reported.
//
// A failed build returns *BuildFailureError and no artifacts. A cargo
// process that could not run to completion returns
// *AbnormalTerminationError.
func (c *Compiler) Compile(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	command := req.CommandString()

	cmd := exec.CommandContext(ctx, req.Program(), req.Args()...)
	cmd.Dir = req.Workspace()
	if env := req.Env(); len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &AbnormalTerminationError{Reason: "failed to create stdout pipe", Err: err}
	}

	c.logger.Debug().
		Str("command", command).
		Str("workspace", req.Workspace()).
		Str("mode", req.Mode().String()).
		Msg("Running cargo")

	if err := cmd.Start(); err != nil {
		return nil, &AbnormalTerminationError{Reason: "failed to start cargo", Err: err}
	}

	result := &Result{Command: command}
	finished, streamErr := c.consume(req, cargomsg.NewStream(stdout), result)

	// cargo must never block on a full pipe after build-finished.
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()
	result.Duration = time.Since(start)
	stderrText := stderr.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &AbnormalTerminationError{Reason: "build cancelled", Stderr: stderrText, Err: ctxErr}
	}
	if streamErr != nil {
		return nil, &AbnormalTerminationError{Reason: "failed to read cargo output", Stderr: stderrText, Err: streamErr}
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &AbnormalTerminationError{Reason: "failed to wait for cargo", Stderr: stderrText, Err: waitErr}
		}
		exitCode = exitErr.ExitCode()
		if exitCode < 0 {
			return nil, &AbnormalTerminationError{Reason: "cargo was killed", Stderr: stderrText, Err: waitErr}
		}
	}

	if exitCode != 0 || (finished != nil && !finished.Success) || model.CountErrors(result.Diagnostics) > 0 {
		failure := newBuildFailure(result.Diagnostics, exitCode, stderrText)
		c.logger.Debug().
			Int("exit_code", exitCode).
			Int("errors", len(failure.Errors())).
			Msg("Build failed")
		return nil, failure
	}
	if finished == nil {
		return nil, &AbnormalTerminationError{
			Reason: "cargo exited without reporting build-finished",
			Stderr: stderrText,
			Err:    cargomsg.ErrAbnormalTermination,
		}
	}

	c.logger.Debug().
		Int("artifacts", len(result.Artifacts)).
		Int("diagnostics", len(result.Diagnostics)).
		Dur("duration", result.Duration).
		Msg("Build finished")

	return result, nil
}

// consume reads the stream until it ends. It returns the build-finished
// event, if any, and a read error that ended the stream early.
func (c *Compiler) consume(req *Request, stream *cargomsg.Stream, result *Result) (*cargomsg.BuildFinished, error) {
	seen := make(map[string]bool)
	var finished *cargomsg.BuildFinished

	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return finished, nil
		}
		if errors.Is(err, cargomsg.ErrAbnormalTermination) {
			continue
		}
		var malformed *cargomsg.MalformedMessageError
		if errors.As(err, &malformed) {
			result.Malformed++
			c.logger.Warn().Err(err).Msg("Skipping malformed cargo message")
			continue
		}
		if err != nil {
			return finished, err
		}

		switch ev := ev.(type) {
		case *cargomsg.ArtifactProduced:
			c.addArtifact(req, result, seen, ev.Artifact)
		case *cargomsg.CompilerMessage:
			d := c.enricher.Enrich(ev)
			c.logger.Debug().
				Str("severity", string(d.Severity)).
				Str("target", ev.Target.Name).
				Msg(d.Rendered)
			result.Diagnostics = append(result.Diagnostics, d)
			if c.onDiagnostic != nil {
				c.onDiagnostic(d)
			}
		case *cargomsg.BuildScriptOutput:
			c.logger.Debug().
				Str("package", ev.PackageID.Name()).
				Str("out_dir", ev.OutDir).
				Msg("Build script executed")
		case *cargomsg.BuildFinished:
			finished = ev
		case *cargomsg.UnknownMessage:
			c.logger.Debug().Str("reason", string(ev.Reason)).Msg("Ignoring cargo message")
		}
	}
}

func (c *Compiler) addArtifact(req *Request, result *Result, seen map[string]bool, artifact model.ExecutableArtifact) {
	// cargo also builds plain binaries for integration tests, see
	// https://github.com/rust-lang/cargo/issues/7958
	if req.Mode() == ModeTest && !artifact.Profile.Test {
		c.logger.Debug().Str("target", artifact.Target.Name).Msg("Skipping non-test artifact")
		return
	}

	key := artifact.Key()
	if seen[key] {
		c.logger.Warn().
			Str("package", artifact.PackageID.String()).
			Str("target", artifact.Target.Name).
			Msg("Ignoring duplicate artifact")
		return
	}
	seen[key] = true
	result.Artifacts = append(result.Artifacts, artifact)
}

// CompileExecutable builds a bin or example request and returns the single
// executable it produced.
func (c *Compiler) CompileExecutable(ctx context.Context, req *Request) (model.ExecutableArtifact, *Result, error) {
	if req.Mode() == ModeTest {
		return model.ExecutableArtifact{}, nil, fmt.Errorf("%w: expected a bin or example request", ErrInvalidRequest)
	}

	result, err := c.Compile(ctx, req)
	if err != nil {
		return model.ExecutableArtifact{}, nil, err
	}

	var executables []model.ExecutableArtifact
	for _, artifact := range result.Artifacts {
		if artifact.HasExecutable() && artifact.Target.Class() != model.TargetCustomBuild {
			executables = append(executables, artifact)
		}
	}
	if len(executables) != 1 {
		return model.ExecutableArtifact{}, result, fmt.Errorf("%w: cargo build --%s %s produced %d",
			ErrUnexpectedArtifacts, req.Mode(), req.Name(), len(executables))
	}
	return executables[0], result, nil
}
