package build

import (
	"errors"
	"fmt"
	"slices"

	"github.com/perfgo/seacan/diagnostic"
	"github.com/perfgo/seacan/model"
)

// ErrUnexpectedArtifacts is returned when a bin or example build does not
// produce exactly one executable.
var ErrUnexpectedArtifacts = errors.New("unexpected number of executables")

// BuildFailureError is returned when cargo reports a failed build. It
// always carries at least one error diagnostic.
type BuildFailureError struct {
	Diagnostics []model.BuildDiagnostic
	ExitCode    int
	Stderr      string

	cause error
}

func newBuildFailure(diagnostics []model.BuildDiagnostic, exitCode int, stderr string) *BuildFailureError {
	diagnostics = slices.Clone(diagnostics)
	if model.CountErrors(diagnostics) == 0 {
		diagnostics = append(diagnostics, diagnostic.FromStderr(stderr))
	}
	return &BuildFailureError{
		Diagnostics: diagnostics,
		ExitCode:    exitCode,
		Stderr:      stderr,
		cause:       diagnostic.Classify(stderr),
	}
}

func (e *BuildFailureError) Error() string {
	errs := e.Errors()
	if len(errs) == 1 {
		return fmt.Sprintf("build failed: %s", errs[0].Rendered)
	}
	return fmt.Sprintf("build failed with %d errors, first: %s", len(errs), errs[0].Rendered)
}

// Unwrap exposes the classification of cargo's stderr, e.g.
// diagnostic.ErrTargetNotFound.
func (e *BuildFailureError) Unwrap() error {
	return e.cause
}

// Errors returns only the error diagnostics.
func (e *BuildFailureError) Errors() []model.BuildDiagnostic {
	var out []model.BuildDiagnostic
	for _, d := range e.Diagnostics {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// AbnormalTerminationError is returned when cargo could not be run to
// completion: it failed to start, was killed, was cancelled, or stopped
// talking before reporting build-finished.
type AbnormalTerminationError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *AbnormalTerminationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cargo terminated abnormally: %s: %v", e.Reason, e.Err)
	}
	return "cargo terminated abnormally: " + e.Reason
}

func (e *AbnormalTerminationError) Unwrap() error {
	return e.Err
}
