package model

// TestFnKind identifies what a listed harness entry is.
type TestFnKind string

const (
	TestFnTest    TestFnKind = "test"
	TestFnBench   TestFnKind = "bench"
	TestFnIgnored TestFnKind = "ignored"
)

// TestFn is a test or benchmark function enumerated from a compiled artifact.
type TestFn struct {
	Name string     `json:"name"`
	Kind TestFnKind `json:"kind"`
}

// RunArgs returns the arguments that make the artifact run only this function.
func (t TestFn) RunArgs() []string {
	return []string{"--exact", t.Name}
}

// Artifact is a compiled test artifact together with the functions in it
// that matched the caller's name selection. Tests is empty when nothing
// matched; the artifact is still reported.
type Artifact struct {
	Artifact ExecutableArtifact `json:"artifact"`
	Tests    []TestFn           `json:"tests"`
}

// RunArgs returns the arguments that make the artifact run exactly the
// matched functions. It returns nil when nothing matched, since running the
// artifact without a filter would run everything.
func (a Artifact) RunArgs() []string {
	if len(a.Tests) == 0 {
		return nil
	}
	args := make([]string, 0, len(a.Tests)+1)
	args = append(args, "--exact")
	for _, test := range a.Tests {
		args = append(args, test.Name)
	}
	return args
}
