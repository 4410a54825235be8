package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgo/seacan/introspect"
	"github.com/perfgo/seacan/model"
)

func sampleResult() *introspect.Result {
	lib := model.ExecutableArtifact{
		PackageID:  model.PackageID{Repr: "hello_world 0.1.0 (path+file:///src/hello_world)"},
		Target:     model.Target{Name: "hello_world", Kind: []string{"lib"}},
		Executable: "/src/hello world/target/debug/deps/hello_world-0123",
	}
	integration := model.ExecutableArtifact{
		PackageID:  model.PackageID{Repr: "hello_world 0.1.0 (path+file:///src/hello_world)"},
		Target:     model.Target{Name: "frob", Kind: []string{"test"}},
		Executable: "/src/hello_world/target/debug/deps/frob-4567",
	}
	broken := model.ExecutableArtifact{
		Target:     model.Target{Name: "broken", Kind: []string{"test"}},
		Executable: "/src/hello_world/target/debug/deps/broken-89ab",
	}

	return &introspect.Result{
		Artifacts: []model.Artifact{
			{Artifact: lib, Tests: []model.TestFn{
				{Name: "tests::it_works", Kind: model.TestFnTest},
				{Name: "tests::slow", Kind: model.TestFnIgnored},
			}},
			{Artifact: integration, Tests: []model.TestFn{}},
		},
		Failures: []*introspect.ListingFailedError{
			{Artifact: broken, ExitCode: 1, Err: errors.New("exited with code 1"), Stderr: "thread 'main' panicked"},
		},
		Matched: 3,
	}
}

func TestRunCommand(t *testing.T) {
	result := sampleResult()
	assert.Equal(t,
		"'/src/hello world/target/debug/deps/hello_world-0123' --exact tests::it_works tests::slow --nocapture",
		runCommand(result.Artifacts[0], []string{"--nocapture"}))
}

func TestWriteText(t *testing.T) {
	var out bytes.Buffer
	writeText(&out, sampleResult())

	want := "hello_world (lib)  hello_world\n" +
		"   tests::it_works\n" +
		"   tests::slow (ignored)\n" +
		"   run: '/src/hello world/target/debug/deps/hello_world-0123' --exact tests::it_works tests::slow\n" +
		"frob (test)  hello_world\n" +
		"   no matching tests\n" +
		"✗ broken (test): exited with code 1\n" +
		"   thread 'main' panicked\n" +
		"\n2 tests in 1 of 3 targets\n"
	assert.Equal(t, want, out.String())
}

func TestWriteJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeJSON(&out, sampleResult()))

	var decoded struct {
		Artifacts []struct {
			Artifact model.ExecutableArtifact `json:"artifact"`
			Tests    []model.TestFn           `json:"tests"`
			Command  string                   `json:"command"`
		} `json:"artifacts"`
		Failures []model.RunFailure `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))

	require.Len(t, decoded.Artifacts, 2)
	assert.Equal(t, "hello_world", decoded.Artifacts[0].Artifact.Target.Name)
	assert.Len(t, decoded.Artifacts[0].Tests, 2)
	assert.Contains(t, decoded.Artifacts[0].Command, "--exact tests::it_works tests::slow")
	assert.Empty(t, decoded.Artifacts[1].Command)
	assert.Equal(t, []model.TestFn{}, decoded.Artifacts[1].Tests)

	require.Len(t, decoded.Failures, 1)
	assert.Equal(t, "broken", decoded.Failures[0].Target)
	assert.Equal(t, "exited with code 1", decoded.Failures[0].Error)
}

func TestSummarize(t *testing.T) {
	artifacts, failures := summarize(sampleResult())
	require.Len(t, artifacts, 2)
	assert.Equal(t, model.RunArtifact{
		Package:    "hello_world",
		Target:     "frob",
		Kind:       "test",
		Executable: "/src/hello_world/target/debug/deps/frob-4567",
		Tests:      []model.TestFn{},
	}, artifacts[1])
	require.Len(t, failures, 1)
}
