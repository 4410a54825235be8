package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackageIDParts(t *testing.T) {
	tests := []struct {
		name        string
		repr        string
		wantName    string
		wantVersion string
		wantSource  string
	}{
		{
			name:        "legacy format",
			repr:        "hello_world 0.1.0 (path+file:///src/hello_world)",
			wantName:    "hello_world",
			wantVersion: "0.1.0",
			wantSource:  "path+file:///src/hello_world",
		},
		{
			name:        "spec format with name",
			repr:        "registry+https://github.com/rust-lang/crates.io-index#serde@1.0.190",
			wantName:    "serde",
			wantVersion: "1.0.190",
			wantSource:  "registry+https://github.com/rust-lang/crates.io-index",
		},
		{
			name:        "spec format without name",
			repr:        "path+file:///src/hello_world#0.1.0",
			wantName:    "hello_world",
			wantVersion: "0.1.0",
			wantSource:  "path+file:///src/hello_world",
		},
		{
			name: "opaque",
			repr: "something else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := PackageID{Repr: tt.repr}
			require.Equal(t, tt.wantName, id.Name())
			require.Equal(t, tt.wantVersion, id.Version())
			require.Equal(t, tt.wantSource, id.Source())
			require.Equal(t, tt.repr, id.String())
		})
	}
}

func TestTargetClass(t *testing.T) {
	tests := []struct {
		kind []string
		want TargetKind
	}{
		{kind: []string{"lib"}, want: TargetLib},
		{kind: []string{"rlib", "cdylib"}, want: TargetLib},
		{kind: []string{"proc-macro"}, want: TargetLib},
		{kind: []string{"bin"}, want: TargetBin},
		{kind: []string{"example"}, want: TargetExample},
		{kind: []string{"test"}, want: TargetTest},
		{kind: []string{"bench"}, want: TargetBench},
		{kind: []string{"custom-build"}, want: TargetCustomBuild},
		{kind: []string{"weird"}, want: TargetUnknown},
		{kind: nil, want: TargetUnknown},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, Target{Kind: tt.kind}.Class(), "kind %v", tt.kind)
	}
}

func TestArtifactProfileDebugInfo(t *testing.T) {
	tests := []struct {
		in      string
		want    DebugInfo
		enabled bool
	}{
		{in: `{"debuginfo":2}`, want: "2", enabled: true},
		{in: `{"debuginfo":0}`, want: "0", enabled: false},
		{in: `{"debuginfo":"line-tables-only"}`, want: "line-tables-only", enabled: true},
		{in: `{"debuginfo":null}`, want: "", enabled: false},
		{in: `{"debuginfo":true}`, want: "2", enabled: true},
		{in: `{}`, want: "", enabled: false},
	}

	for _, tt := range tests {
		var profile ArtifactProfile
		require.NoError(t, json.Unmarshal([]byte(tt.in), &profile), tt.in)
		require.Equal(t, tt.want, profile.DebugInfo, tt.in)
		require.Equal(t, tt.enabled, profile.DebugInfo.Enabled(), tt.in)
	}

	var profile ArtifactProfile
	require.Error(t, json.Unmarshal([]byte(`{"debuginfo":[1]}`), &profile))
}

func TestExecutableArtifactDecode(t *testing.T) {
	data := `{
		"package_id": "hello_world 0.1.0 (path+file:///src/hello_world)",
		"target": {"kind":["bin"],"crate_types":["bin"],"name":"hello_world","src_path":"/src/hello_world/src/main.rs","edition":"2021","doctest":false,"test":true},
		"profile": {"opt_level":"0","debuginfo":2,"debug_assertions":true,"overflow_checks":true,"test":false},
		"features": ["default"],
		"filenames": ["/src/hello_world/target/debug/hello_world"],
		"executable": "/src/hello_world/target/debug/hello_world",
		"fresh": true
	}`

	var artifact ExecutableArtifact
	require.NoError(t, json.Unmarshal([]byte(data), &artifact))
	require.Equal(t, "hello_world", artifact.PackageID.Name())
	require.Equal(t, TargetBin, artifact.Target.Class())
	require.Equal(t, "0", artifact.Profile.OptLevel)
	require.True(t, artifact.HasExecutable())
	require.True(t, artifact.Fresh)
	require.Equal(t, []string{"default"}, artifact.Features)

	encoded, err := json.Marshal(artifact.PackageID)
	require.NoError(t, err)
	require.Equal(t, `"hello_world 0.1.0 (path+file:///src/hello_world)"`, string(encoded))
}

func TestArtifactRunArgs(t *testing.T) {
	artifact := Artifact{
		Tests: []TestFn{
			{Name: "test_a", Kind: TestFnTest},
			{Name: "mod::test_b", Kind: TestFnTest},
		},
	}
	require.Equal(t, []string{"--exact", "test_a", "mod::test_b"}, artifact.RunArgs())
	require.Equal(t, []string{"--exact", "mod::test_b"}, artifact.Tests[1].RunArgs())
	require.Nil(t, Artifact{}.RunArgs())
}

func TestCountErrors(t *testing.T) {
	diagnostics := []BuildDiagnostic{
		{Severity: SeverityWarning},
		{Severity: SeverityError},
		{Severity: SeverityNote},
		{Severity: SeverityError},
	}
	require.Equal(t, 2, CountErrors(diagnostics))
	require.Zero(t, CountErrors(nil))
	require.Equal(t, "src/main.rs:3:7", Location{File: "src/main.rs", Line: 3, Column: 7}.String())
	require.Equal(t, "src/main.rs:3", Location{File: "src/main.rs", Line: 3}.String())
}
