package cli

// This file contains the build command and the pieces shared by every
// command that runs cargo.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/build"
	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/model"
)

// compiler returns a Compiler that prints diagnostics to stderr as cargo
// reports them.
func (a *App) compiler() *build.Compiler {
	return build.NewCompiler(a.logger, build.OnDiagnostic(func(d model.BuildDiagnostic) {
		printDiagnostic(os.Stderr, d)
	}))
}

func printDiagnostic(w io.Writer, d model.BuildDiagnostic) {
	if d.Code != "" {
		fmt.Fprintf(w, "%s[%s]: %s\n", d.Severity, d.Code, d.Rendered)
		return
	}
	fmt.Fprintln(w, d.String())
}

// finishRun fills in the outcome of a cargo invocation and returns the
// files to store with the run.
func finishRun(run *model.Run, result *build.Result, err error) []history.File {
	run.Duration = time.Since(run.Timestamp)

	if result != nil {
		run.Diagnostics = model.CountDiagnostics(result.Diagnostics)
		return diagnosticFiles(result.Diagnostics, "")
	}

	var failure *build.BuildFailureError
	if errors.As(err, &failure) {
		run.ExitCode = failure.ExitCode
		if run.ExitCode <= 0 {
			run.ExitCode = 1
		}
		run.Diagnostics = model.CountDiagnostics(failure.Diagnostics)
		return diagnosticFiles(failure.Diagnostics, failure.Stderr)
	}

	var abnormal *build.AbnormalTerminationError
	if errors.As(err, &abnormal) {
		run.ExitCode = 1
		return diagnosticFiles(nil, abnormal.Stderr)
	}

	if err != nil {
		run.ExitCode = 1
	}
	return nil
}

func (a *App) build(ctx *cli.Context) error {
	bin, example := ctx.String("bin"), ctx.String("example")
	if bin != "" && example != "" {
		return fmt.Errorf("--bin and --example are mutually exclusive")
	}
	if bin == "" && example == "" {
		return fmt.Errorf("one of --bin or --example is required")
	}

	opts, err := requestOptions(ctx, a.cfg)
	if err != nil {
		return err
	}

	var req *build.Request
	if bin != "" {
		req, err = build.NewBinRequest(bin, opts...)
	} else {
		req, err = build.NewExampleRequest(example, opts...)
	}
	if err != nil {
		return err
	}

	run := a.newRun(ctx.Context, model.RunTypeBuild, os.Args, req)
	run.Build = &model.BuildRun{Target: req.Name()}

	a.logger.Info().
		Str("mode", req.Mode().String()).
		Str("target", req.Name()).
		Msg("Building executable")
	a.logger.Debug().Str("command", req.CommandString()).Msg("Executing cargo build")

	artifact, result, err := a.compiler().CompileExecutable(ctx.Context, req)
	files := finishRun(run, result, err)
	if err == nil {
		run.Build.Executable = artifact.Executable
	} else if run.ExitCode == 0 {
		run.ExitCode = 1
	}
	entry := a.recordRun(ctx.Context, run, files...)

	if err != nil {
		return err
	}

	if ctx.Bool("archive") {
		if entry == nil {
			a.logger.Warn().Msg("Not archiving executable, run was not recorded")
		} else if err := archiveExecutable(entry, artifact.Executable); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to archive executable")
		}
	}

	a.logger.Info().
		Dur("duration", result.Duration).
		Int("warnings", run.Diagnostics.Warnings).
		Bool("fresh", artifact.Fresh).
		Msg("Build finished")
	fmt.Println(artifact.Executable)
	return nil
}
