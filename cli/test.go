package cli

// This file contains the test command: build test targets, list the tests
// inside them and print how to run each selection.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"al.essio.dev/pkg/shellescape"
	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/build"
	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/introspect"
	"github.com/perfgo/seacan/model"
	"github.com/perfgo/seacan/spec"
)

// discovery is a finished test build with its listed tests.
type discovery struct {
	run    *model.Run
	result *introspect.Result
	built  *build.Result
	files  []history.File
	name   spec.NameSpec
	types  spec.TypeSpec
}

// discover builds the selected test targets and lists their tests. A
// failed build is recorded in history before the error is returned.
func (a *App) discover(ctx *cli.Context, runType model.RunType) (*discovery, error) {
	types, err := targetSelectionFrom(ctx).typeSpec()
	if err != nil {
		return nil, err
	}
	name := nameSpec(ctx.Args().First(), ctx.Bool("exact"))

	opts, err := requestOptions(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	req, err := build.NewTestRequest(types, opts...)
	if err != nil {
		return nil, err
	}

	parallelism := a.cfg.Introspect.Parallelism
	if ctx.IsSet("parallel") {
		parallelism = ctx.Int("parallel")
	}
	introspector := introspect.New(a.logger,
		introspect.WithParallelism(parallelism),
		introspect.WithIgnored(ctx.Bool("ignored") || a.cfg.Introspect.Ignored),
	)

	run := a.newRun(ctx.Context, runType, os.Args, req)
	run.Test = &model.TestRun{NameSpec: name.String(), TypeSpec: types.String()}

	a.logger.Info().
		Str("types", types.String()).
		Str("name", name.String()).
		Msg("Building test targets")
	a.logger.Debug().Str("command", req.CommandString()).Msg("Executing cargo test --no-run")

	result, built, err := build.DiscoverTests(ctx.Context, a.compiler(), introspector, req, name)
	files := finishRun(run, built, err)
	if err != nil {
		if run.ExitCode == 0 {
			run.ExitCode = 1
		}
		a.recordRun(ctx.Context, run, files...)
		return nil, err
	}

	run.Test.Artifacts, run.Test.Failures = summarize(result)
	if len(result.Failures) > 0 {
		run.ExitCode = 1
	}

	return &discovery{
		run:    run,
		result: result,
		built:  built,
		files:  files,
		name:   name,
		types:  types,
	}, nil
}

// summarize converts a discovery result into its history form.
func summarize(result *introspect.Result) ([]model.RunArtifact, []model.RunFailure) {
	artifacts := make([]model.RunArtifact, 0, len(result.Artifacts))
	for _, a := range result.Artifacts {
		artifacts = append(artifacts, model.RunArtifact{
			Package:    a.Artifact.PackageID.Name(),
			Target:     a.Artifact.Target.Name,
			Kind:       string(a.Artifact.Target.Class()),
			Executable: a.Artifact.Executable,
			Tests:      a.Tests,
		})
	}

	var failures []model.RunFailure
	for _, f := range result.Failures {
		failures = append(failures, model.RunFailure{
			Target:     f.Artifact.Target.Name,
			Executable: f.Artifact.Executable,
			Error:      f.Err.Error(),
		})
	}
	return artifacts, failures
}

// runCommand renders the shell command that runs exactly the matched tests
// of artifact, followed by extra test harness arguments.
func runCommand(artifact model.Artifact, extra []string) string {
	args := append([]string{artifact.Artifact.Executable}, artifact.RunArgs()...)
	return shellescape.QuoteCommand(append(args, extra...))
}

// testListing is the JSON output of the test command.
type testListing struct {
	Artifacts []listedArtifact   `json:"artifacts"`
	Failures  []model.RunFailure `json:"failures,omitempty"`
}

type listedArtifact struct {
	model.Artifact
	Command string `json:"command,omitempty"`
}

func writeJSON(w io.Writer, result *introspect.Result) error {
	listing := testListing{Artifacts: make([]listedArtifact, 0, len(result.Artifacts))}
	for _, a := range result.Artifacts {
		listed := listedArtifact{Artifact: a}
		if len(a.Tests) > 0 {
			listed.Command = runCommand(a, nil)
		}
		listing.Artifacts = append(listing.Artifacts, listed)
	}
	_, listing.Failures = summarize(result)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(listing)
}

func writeText(w io.Writer, result *introspect.Result) {
	for _, a := range result.Artifacts {
		fmt.Fprintf(w, "%s  %s\n", a.Artifact.Target, a.Artifact.PackageID.Name())
		if len(a.Tests) == 0 {
			fmt.Fprintln(w, "   no matching tests")
			continue
		}
		for _, test := range a.Tests {
			if test.Kind == model.TestFnTest {
				fmt.Fprintf(w, "   %s\n", test.Name)
			} else {
				fmt.Fprintf(w, "   %s (%s)\n", test.Name, test.Kind)
			}
		}
		fmt.Fprintf(w, "   run: %s\n", runCommand(a, nil))
	}

	for _, f := range result.Failures {
		fmt.Fprintf(w, "✗ %s: %v\n", f.Artifact.Target, f.Err)
		if f.Stderr != "" {
			fmt.Fprintf(w, "   %s\n", f.Stderr)
		}
	}

	fmt.Fprintf(w, "\n%d tests in %d of %d targets\n", result.TestCount(), countWithTests(result), result.Matched)
}

func countWithTests(result *introspect.Result) int {
	n := 0
	for _, a := range result.Artifacts {
		if len(a.Tests) > 0 {
			n++
		}
	}
	return n
}

func (a *App) test(ctx *cli.Context) error {
	d, err := a.discover(ctx, model.RunTypeTest)
	if err != nil {
		return err
	}

	if d.result.NoMatchingTargets() {
		a.logger.Warn().Str("types", d.types.String()).Msg("No test targets matched")
	}

	a.logger.Debug().
		Dur("build", d.built.Duration).
		Int("artifacts", len(d.built.Artifacts)).
		Msg("Test build finished")

	if ctx.Bool("json") {
		err = writeJSON(os.Stdout, d.result)
	} else {
		writeText(os.Stdout, d.result)
	}
	a.recordRun(ctx.Context, d.run, d.files...)
	if err != nil {
		return err
	}

	return d.result.Err()
}
