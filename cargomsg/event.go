package cargomsg

import (
	"encoding/json"

	"github.com/perfgo/seacan/model"
)

// Reason is the discriminator field of a cargo JSON message.
type Reason string

const (
	ReasonCompilerArtifact    Reason = "compiler-artifact"
	ReasonCompilerMessage     Reason = "compiler-message"
	ReasonBuildScriptExecuted Reason = "build-script-executed"
	ReasonBuildFinished       Reason = "build-finished"
)

// Event is one classified line of cargo's progress stream. The set of
// implementations is closed: ArtifactProduced, CompilerMessage,
// BuildScriptOutput, BuildFinished and UnknownMessage.
type Event interface {
	// Line is the 1-based line number the event was parsed from.
	Line() int
	event()
}

type position struct {
	line int
}

func (p position) Line() int { return p.line }
func (position) event()      {}

// ArtifactProduced reports a finished compilation unit.
type ArtifactProduced struct {
	position
	Artifact model.ExecutableArtifact
}

// CompilerMessage carries a raw rustc diagnostic attributed to a target.
type CompilerMessage struct {
	position
	PackageID    model.PackageID
	ManifestPath string
	Target       model.Target
	Payload      json.RawMessage
}

// BuildScriptOutput reports what a build script told cargo.
type BuildScriptOutput struct {
	position
	PackageID   model.PackageID
	LinkedLibs  []string
	LinkedPaths []string
	Cfgs        []string
	Env         [][2]string
	OutDir      string
}

// BuildFinished is the terminal message of a build.
type BuildFinished struct {
	position
	Success bool
}

// UnknownMessage is a well-formed message with a reason this package does
// not model. Cargo adds reasons over time; callers are expected to skip
// these.
type UnknownMessage struct {
	position
	Reason Reason
	Raw    json.RawMessage
}

// wire types, mirroring cargo's JSON shapes.

type envelope struct {
	Reason Reason `json:"reason"`
}

type artifactMessage struct {
	PackageID    model.PackageID       `json:"package_id"`
	ManifestPath string                `json:"manifest_path"`
	Target       *model.Target         `json:"target"`
	Profile      model.ArtifactProfile `json:"profile"`
	Features     []string              `json:"features"`
	Filenames    []string              `json:"filenames"`
	Executable   *string               `json:"executable"`
	Fresh        bool                  `json:"fresh"`
}

type compilerMessage struct {
	PackageID    model.PackageID `json:"package_id"`
	ManifestPath string          `json:"manifest_path"`
	Target       model.Target    `json:"target"`
	Message      json.RawMessage `json:"message"`
}

type buildScriptMessage struct {
	PackageID   model.PackageID `json:"package_id"`
	LinkedLibs  []string        `json:"linked_libs"`
	LinkedPaths []string        `json:"linked_paths"`
	Cfgs        []string        `json:"cfgs"`
	Env         [][2]string     `json:"env"`
	OutDir      string          `json:"out_dir"`
}

type buildFinishedMessage struct {
	Success *bool `json:"success"`
}
