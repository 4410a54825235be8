// Package introspect runs compiled test artifacts in libtest's listing mode
// and collects the test functions that match a name selection.
package introspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/perfgo/seacan/model"
	"github.com/perfgo/seacan/spec"
)

// ListArgs are the arguments that make a libtest binary list its tests.
var ListArgs = []string{"--list", "--format=terse"}

// ListingFailedError reports an artifact whose tests could not be listed.
// It does not affect other artifacts.
type ListingFailedError struct {
	Artifact model.ExecutableArtifact
	Stderr   string
	ExitCode int
	Err      error
}

func (e *ListingFailedError) Error() string {
	return fmt.Sprintf("listing tests of %s (%s) failed: %v", e.Artifact.Target.Name, e.Artifact.Executable, e.Err)
}

func (e *ListingFailedError) Unwrap() error {
	return e.Err
}

// Result is the outcome of Discover. Artifacts and Failures together
// cover every selected artifact, each in input order.
type Result struct {
	Artifacts []model.Artifact
	Failures  []*ListingFailedError
	// Matched is the number of artifacts selected by the type filter.
	Matched int
}

// NoMatchingTargets reports whether no artifact matched the type filter.
func (r *Result) NoMatchingTargets() bool {
	return r.Matched == 0
}

// TestCount returns the number of matched test functions.
func (r *Result) TestCount() int {
	n := 0
	for _, a := range r.Artifacts {
		n += len(a.Tests)
	}
	return n
}

// Err joins the listing failures, or returns nil.
func (r *Result) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Introspector lists the tests in compiled artifacts.
type Introspector struct {
	logger      zerolog.Logger
	workDir     string
	env         []string
	parallelism int
	ignored     bool
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithWorkDir sets the directory artifacts are run in. By default each
// artifact runs in its package directory, like cargo test does.
func WithWorkDir(dir string) Option {
	return func(i *Introspector) {
		i.workDir = dir
	}
}

// WithEnv adds an environment variable on top of the current environment.
func WithEnv(key, value string) Option {
	return func(i *Introspector) {
		i.env = append(i.env, key+"="+value)
	}
}

// WithParallelism sets how many artifacts are listed at once. Values
// below 1 mean 1.
func WithParallelism(n int) Option {
	return func(i *Introspector) {
		i.parallelism = n
	}
}

// WithIgnored runs a second listing with --ignored to mark ignored tests.
func WithIgnored(ignored bool) Option {
	return func(i *Introspector) {
		i.ignored = ignored
	}
}

// New creates an Introspector.
func New(logger zerolog.Logger, opts ...Option) *Introspector {
	i := &Introspector{
		logger:      logger,
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.parallelism < 1 {
		i.parallelism = 1
	}
	return i
}

type listing struct {
	index int
	tests []model.TestFn
	err   *ListingFailedError
}

// Discover lists the tests of every artifact that matches types and keeps
// those whose name matches name. Artifacts without an executable are
// skipped. An artifact with no matching tests is still reported.
func (i *Introspector) Discover(ctx context.Context, artifacts []model.ExecutableArtifact, name spec.NameSpec, types spec.TypeSpec) *Result {
	var selected []model.ExecutableArtifact
	for _, artifact := range artifacts {
		if !types.Matches(artifact.Target, artifact.Profile) {
			continue
		}
		if !artifact.HasExecutable() {
			i.logger.Debug().Str("target", artifact.Target.Name).Msg("Skipping artifact without executable")
			continue
		}
		selected = append(selected, artifact)
	}

	i.logger.Debug().
		Int("artifacts", len(selected)).
		Str("name", name.String()).
		Str("types", types.String()).
		Int("parallelism", i.parallelism).
		Msg("Discovering tests")

	sem := make(chan struct{}, i.parallelism)
	listings := make(chan listing, len(selected))
	var wg sync.WaitGroup

	for idx, artifact := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				listings <- listing{index: idx, err: &ListingFailedError{Artifact: artifact, Err: ctx.Err()}}
				return
			}

			tests, err := i.inspect(ctx, artifact)
			listings <- listing{index: idx, tests: filter(tests, name), err: err}
		}()
	}

	go func() {
		wg.Wait()
		close(listings)
	}()

	ordered := make([]listing, len(selected))
	for l := range listings {
		ordered[l.index] = l
	}

	result := &Result{Matched: len(selected)}
	for idx, l := range ordered {
		if l.err != nil {
			i.logger.Warn().Err(l.err).Msg("Failed to list tests")
			result.Failures = append(result.Failures, l.err)
			continue
		}
		result.Artifacts = append(result.Artifacts, model.Artifact{
			Artifact: selected[idx],
			Tests:    l.tests,
		})
	}
	return result
}

// inspect lists all tests of one artifact, marking ignored ones when
// configured.
func (i *Introspector) inspect(ctx context.Context, artifact model.ExecutableArtifact) ([]model.TestFn, *ListingFailedError) {
	tests, err := i.list(ctx, artifact)
	if err != nil || !i.ignored {
		return tests, err
	}

	ignored, err := i.list(ctx, artifact, "--ignored")
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(ignored))
	for _, t := range ignored {
		names[t.Name] = true
	}
	for idx := range tests {
		if tests[idx].Kind == model.TestFnTest && names[tests[idx].Name] {
			tests[idx].Kind = model.TestFnIgnored
		}
	}
	return tests, nil
}

func (i *Introspector) list(ctx context.Context, artifact model.ExecutableArtifact, extra ...string) ([]model.TestFn, *ListingFailedError) {
	args := append(append([]string(nil), ListArgs...), extra...)
	cmd := exec.CommandContext(ctx, artifact.Executable, args...)
	cmd.Dir = i.workDir
	if cmd.Dir == "" && artifact.ManifestPath != "" {
		cmd.Dir = filepath.Dir(artifact.ManifestPath)
	}
	if len(i.env) > 0 {
		cmd.Env = append(os.Environ(), i.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	i.logger.Debug().
		Str("executable", artifact.Executable).
		Strs("args", args).
		Msg("Listing tests")

	if err := cmd.Run(); err != nil {
		failure := &ListingFailedError{Artifact: artifact, Stderr: stderr.String(), ExitCode: -1}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			failure.ExitCode = exitErr.ExitCode()
			failure.Err = fmt.Errorf("exited with code %d", exitErr.ExitCode())
		} else {
			failure.Err = fmt.Errorf("failed to run: %w", err)
		}
		return nil, failure
	}

	tests, err := ParseListing(i.logger, &stdout)
	if err != nil {
		return nil, &ListingFailedError{Artifact: artifact, Stderr: stderr.String(), Err: err}
	}
	return tests, nil
}

func filter(tests []model.TestFn, name spec.NameSpec) []model.TestFn {
	matched := []model.TestFn{}
	for _, t := range tests {
		if name.Matches(t.Name) {
			matched = append(matched, t)
		}
	}
	return matched
}
