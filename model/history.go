package model

import "time"

// RunType represents the kind of recorded run
type RunType string

const (
	RunTypeBuild RunType = "build"
	RunTypeTest  RunType = "test"
)

// Run represents a single seacan invocation as stored in history.json.
// It contains common fields shared by build and test runs.
type Run struct {
	// Unique ID for this run (UUID)
	ID string `json:"id"`
	// Type of run (build or test)
	Type RunType `json:"type"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including program name)
	Args []string `json:"args"`
	// Working directory where seacan was run (relative to repo root)
	WorkDir string `json:"workdir"`
	// Exit code of seacan for this run
	ExitCode int `json:"exit_code"`
	// Duration of the run
	Duration time.Duration `json:"duration"`
	// Git information
	Git *Git `json:"git,omitempty"`
	// Host the run happened on
	Host *Host `json:"host,omitempty"`
	// Cargo command line that was executed
	Command string `json:"command,omitempty"`
	// Diagnostic counts by severity
	Diagnostics DiagnosticCounts `json:"diagnostics"`
	// Files stored alongside history.json
	Files []RunFile `json:"files,omitempty"`

	// Type-specific data (only one should be populated based on Type)
	Build *BuildRun `json:"build,omitempty"`
	Test  *TestRun  `json:"test,omitempty"`
}

// Git contains git repository information
type Git struct {
	// Git commit hash at time of execution
	Commit string `json:"commit,omitempty"`
	// Git branch at time of execution
	Branch string `json:"branch,omitempty"`
	// Repository name
	Repo string `json:"repo,omitempty"`
}

// Host describes the machine and toolchain
type Host struct {
	OS           string `json:"os,omitempty"`
	Arch         string `json:"arch,omitempty"`
	CargoVersion string `json:"cargo_version,omitempty"`
}

// DiagnosticCounts counts compiler diagnostics by severity.
type DiagnosticCounts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Notes    int `json:"notes"`
}

// CountDiagnostics tallies diagnostics by severity.
func CountDiagnostics(diagnostics []BuildDiagnostic) DiagnosticCounts {
	var c DiagnosticCounts
	for _, d := range diagnostics {
		switch d.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		default:
			c.Notes++
		}
	}
	return c
}

// BuildRun contains build-specific fields
type BuildRun struct {
	// Name of the bin or example target
	Target string `json:"target"`
	// Path to the produced executable
	Executable string `json:"executable,omitempty"`
}

// TestRun contains test-specific fields
type TestRun struct {
	// Test name selection as given on the command line
	NameSpec string `json:"name_spec"`
	// Target type selection
	TypeSpec string `json:"type_spec"`
	// Artifacts that matched, with their test functions
	Artifacts []RunArtifact `json:"artifacts,omitempty"`
	// Artifacts whose tests could not be listed
	Failures []RunFailure `json:"failures,omitempty"`
}

// RunArtifact is the slimmed down record of a discovered test artifact.
type RunArtifact struct {
	Package    string   `json:"package"`
	Target     string   `json:"target"`
	Kind       string   `json:"kind"`
	Executable string   `json:"executable"`
	Tests      []TestFn `json:"tests"`
}

// RunFailure records an artifact whose listing failed.
type RunFailure struct {
	Target     string `json:"target"`
	Executable string `json:"executable"`
	Error      string `json:"error"`
}

// RunFileType identifies the type of a stored file
type RunFileType uint8

const (
	RunFileDiagnostics RunFileType = iota
	RunFileStderr
	RunFileTests
	RunFileStdout
	RunFileExecutable
)

func (t RunFileType) String() string {
	switch t {
	case RunFileDiagnostics:
		return "diagnostics"
	case RunFileStderr:
		return "stderr"
	case RunFileTests:
		return "tests"
	case RunFileStdout:
		return "stdout"
	case RunFileExecutable:
		return "executable"
	}
	return "unknown"
}

// RunFile represents a file written next to history.json
type RunFile struct {
	Type RunFileType `json:"type"`
	Size uint64      `json:"size"`
	File string      `json:"file"` // relative to run dir
}
