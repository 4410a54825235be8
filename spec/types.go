package spec

import (
	"fmt"

	"github.com/perfgo/seacan/model"
)

type typeClass uint8

const (
	typeInvalid typeClass = iota
	typeLib
	typeBin
	typeBins
	typeExample
	typeExamples
	typeIntegration
	typeIntegrations
	typeBench
	typeBenches
	typeDoc
	typeAll
)

// TypeSpec selects which kind of test artifact to build and introspect.
// Pattern variants accept '*' wildcards in the target name (e.g. "frob_*").
// The zero value selects nothing and fails Validate.
type TypeSpec struct {
	class   typeClass
	pattern string
}

// Lib selects the unit tests of the library target.
func Lib() TypeSpec { return TypeSpec{class: typeLib} }

// Bin selects the unit tests of binaries whose name matches pattern.
func Bin(pattern string) TypeSpec { return TypeSpec{class: typeBin, pattern: pattern} }

// Bins selects the unit tests of every binary.
func Bins() TypeSpec { return TypeSpec{class: typeBins} }

// Example selects the unit tests of examples whose name matches pattern.
func Example(pattern string) TypeSpec { return TypeSpec{class: typeExample, pattern: pattern} }

// Examples selects the unit tests of every example.
func Examples() TypeSpec { return TypeSpec{class: typeExamples} }

// Integration selects integration tests (files under tests/) whose name
// matches pattern.
func Integration(pattern string) TypeSpec {
	return TypeSpec{class: typeIntegration, pattern: pattern}
}

// Integrations selects every integration test.
func Integrations() TypeSpec { return TypeSpec{class: typeIntegrations} }

// Bench selects benchmark targets whose name matches pattern.
func Bench(pattern string) TypeSpec { return TypeSpec{class: typeBench, pattern: pattern} }

// Benches selects every benchmark target.
func Benches() TypeSpec { return TypeSpec{class: typeBenches} }

// Doc selects doctests. Doctests are not compiled into standalone
// artifacts, so Doc never matches an artifact.
func Doc() TypeSpec { return TypeSpec{class: typeDoc} }

// All selects every test target cargo builds by default.
func All() TypeSpec { return TypeSpec{class: typeAll} }

// Pattern returns the target name pattern, or "" for variants without one.
func (t TypeSpec) Pattern() string {
	return t.pattern
}

// Matches reports whether a compiled artifact with the given target and
// profile is selected. Only test-profile artifacts can be selected.
func (t TypeSpec) Matches(target model.Target, profile model.ArtifactProfile) bool {
	if !profile.Test {
		return false
	}

	class := target.Class()
	switch t.class {
	case typeLib:
		return class == model.TargetLib
	case typeBin:
		return class == model.TargetBin && MatchWildcard(t.pattern, target.Name)
	case typeBins:
		return class == model.TargetBin
	case typeExample:
		return class == model.TargetExample && MatchWildcard(t.pattern, target.Name)
	case typeExamples:
		return class == model.TargetExample
	case typeIntegration:
		return class == model.TargetTest && MatchWildcard(t.pattern, target.Name)
	case typeIntegrations:
		return class == model.TargetTest
	case typeBench:
		return class == model.TargetBench && MatchWildcard(t.pattern, target.Name)
	case typeBenches:
		return class == model.TargetBench
	case typeDoc:
		return false
	case typeAll:
		switch class {
		case model.TargetLib, model.TargetBin, model.TargetExample, model.TargetTest, model.TargetBench:
			return true
		}
		return false
	}
	return false
}

// CargoArgs returns the target selection flags for `cargo test`.
func (t TypeSpec) CargoArgs() []string {
	switch t.class {
	case typeLib:
		return []string{"--lib"}
	case typeBin:
		return []string{"--bin", t.pattern}
	case typeBins:
		return []string{"--bins"}
	case typeExample:
		return []string{"--example", t.pattern}
	case typeExamples:
		return []string{"--examples"}
	case typeIntegration:
		return []string{"--test", t.pattern}
	case typeIntegrations:
		return []string{"--test", "*"}
	case typeBench:
		return []string{"--bench", t.pattern}
	case typeBenches:
		return []string{"--benches"}
	case typeDoc:
		return []string{"--doc"}
	}
	return nil
}

// Validate rejects the zero TypeSpec and pattern variants with an empty
// pattern.
func (t TypeSpec) Validate() error {
	switch t.class {
	case typeInvalid:
		return fmt.Errorf("no test target type selected")
	case typeBin, typeExample, typeIntegration, typeBench:
		if t.pattern == "" {
			return fmt.Errorf("%s: target name pattern must not be empty", t)
		}
	}
	return nil
}

func (t TypeSpec) String() string {
	switch t.class {
	case typeLib:
		return "lib"
	case typeBin:
		return fmt.Sprintf("bin(%s)", t.pattern)
	case typeBins:
		return "bins"
	case typeExample:
		return fmt.Sprintf("example(%s)", t.pattern)
	case typeExamples:
		return "examples"
	case typeIntegration:
		return fmt.Sprintf("integration(%s)", t.pattern)
	case typeIntegrations:
		return "integrations"
	case typeBench:
		return fmt.Sprintf("bench(%s)", t.pattern)
	case typeBenches:
		return "benches"
	case typeDoc:
		return "doc"
	case typeAll:
		return "all"
	}
	return "invalid"
}
