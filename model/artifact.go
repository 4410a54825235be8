package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PackageID is cargo's opaque package identifier, e.g.
// "hello_world 0.1.0 (path+file:///src/hello_world)" or
// "path+file:///src/hello_world#0.1.0".
type PackageID struct {
	Repr string `json:"repr"`
}

func (p PackageID) String() string {
	return p.Repr
}

// MarshalJSON encodes the id the way cargo does, as a bare string.
func (p PackageID) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Repr)
}

// UnmarshalJSON accepts the bare string cargo emits.
func (p *PackageID) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.Repr)
}

// Name returns the package name encoded in the id, or "" if it cannot be
// determined. The id stays authoritative; this is a best effort parse.
func (p PackageID) Name() string {
	name, _, _ := p.parts()
	return name
}

// Version returns the package version encoded in the id, or "".
func (p PackageID) Version() string {
	_, version, _ := p.parts()
	return version
}

// Source returns the source location encoded in the id, or "".
func (p PackageID) Source() string {
	_, _, source := p.parts()
	return source
}

func (p PackageID) parts() (name, version, source string) {
	repr := strings.TrimSpace(p.Repr)

	// Legacy form: "name version (source)"
	if fields := strings.SplitN(repr, " ", 3); len(fields) == 3 &&
		strings.HasPrefix(fields[2], "(") && strings.HasSuffix(fields[2], ")") {
		return fields[0], fields[1], strings.TrimSuffix(strings.TrimPrefix(fields[2], "("), ")")
	}

	// Package id spec form: "source#name@version" or "source#version"
	hash := strings.LastIndex(repr, "#")
	if hash < 0 {
		return "", "", ""
	}
	source = repr[:hash]
	fragment := repr[hash+1:]
	if at := strings.LastIndex(fragment, "@"); at >= 0 {
		return fragment[:at], fragment[at+1:], source
	}

	// Without an explicit name the last path segment of the source is the name.
	trimmed := strings.TrimRight(source, "/")
	if slash := strings.LastIndex(trimmed, "/"); slash >= 0 {
		name = trimmed[slash+1:]
	}
	return name, fragment, source
}

// TargetKind is the class of a compilation unit.
type TargetKind string

const (
	TargetLib         TargetKind = "lib"
	TargetBin         TargetKind = "bin"
	TargetExample     TargetKind = "example"
	TargetTest        TargetKind = "test"
	TargetBench       TargetKind = "bench"
	TargetCustomBuild TargetKind = "custom-build"
	TargetDoctest     TargetKind = "doctest"
	TargetUnknown     TargetKind = ""
)

// libraryKinds are the cargo kinds that all describe a library target.
var libraryKinds = map[string]bool{
	"lib":        true,
	"rlib":       true,
	"dylib":      true,
	"cdylib":     true,
	"staticlib":  true,
	"proc-macro": true,
}

// Target describes one compilation unit as reported by cargo.
type Target struct {
	Name       string   `json:"name"`
	Kind       []string `json:"kind"`
	CrateTypes []string `json:"crate_types,omitempty"`
	SrcPath    string   `json:"src_path"`
	Edition    string   `json:"edition,omitempty"`
	Doctest    bool     `json:"doctest"`
	Test       bool     `json:"test"`
}

// Class collapses cargo's kind list into a single TargetKind.
func (t Target) Class() TargetKind {
	for _, kind := range t.Kind {
		if libraryKinds[kind] {
			return TargetLib
		}
		switch TargetKind(kind) {
		case TargetBin, TargetExample, TargetTest, TargetBench, TargetCustomBuild:
			return TargetKind(kind)
		}
	}
	return TargetUnknown
}

func (t Target) String() string {
	return fmt.Sprintf("%s (%s)", t.Name, t.Class())
}

// DebugInfo is the debug info level of a profile. Cargo reports it either
// as a number (0, 1, 2) or as a name ("line-tables-only").
type DebugInfo string

// UnmarshalJSON accepts numbers, strings, booleans and null.
func (d *DebugInfo) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*d = ""
	case float64:
		*d = DebugInfo(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		*d = DebugInfo(v)
	case bool:
		if v {
			*d = "2"
		} else {
			*d = "0"
		}
	default:
		return fmt.Errorf("unsupported debuginfo value %s", string(data))
	}
	return nil
}

// Enabled reports whether any debug info is generated.
func (d DebugInfo) Enabled() bool {
	return d != "" && d != "0" && d != "none"
}

// ArtifactProfile is the build profile an artifact was compiled with.
type ArtifactProfile struct {
	OptLevel        string    `json:"opt_level"`
	DebugInfo       DebugInfo `json:"debuginfo,omitempty"`
	DebugAssertions bool      `json:"debug_assertions"`
	OverflowChecks  bool      `json:"overflow_checks"`
	Test            bool      `json:"test"`
}

// ExecutableArtifact is a compiled build target. Executable is empty for
// artifacts that do not produce something runnable (e.g. rlibs).
type ExecutableArtifact struct {
	PackageID    PackageID       `json:"package_id"`
	ManifestPath string          `json:"manifest_path,omitempty"`
	Target       Target          `json:"target"`
	Profile      ArtifactProfile `json:"profile"`
	Features     []string        `json:"features"`
	Filenames    []string        `json:"filenames"`
	Executable   string          `json:"executable,omitempty"`
	Fresh        bool            `json:"fresh"`
}

// HasExecutable reports whether cargo produced a runnable file.
func (a ExecutableArtifact) HasExecutable() bool {
	return a.Executable != ""
}

// Key identifies the artifact within one build.
func (a ExecutableArtifact) Key() string {
	return a.PackageID.Repr + "\x00" + string(a.Target.Class()) + "\x00" + a.Target.Name
}
