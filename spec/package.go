package spec

import (
	"strings"

	"github.com/perfgo/seacan/model"
	"github.com/rs/zerolog"
)

// PackageSpec is the value of cargo's --package flag.
type PackageSpec struct {
	repr string
}

const anyPackage = "*"

// AnyPackage selects every package in the workspace.
func AnyPackage() PackageSpec { return PackageSpec{repr: anyPackage} }

// PackageName selects a workspace package by name.
func PackageName(name string) PackageSpec { return PackageSpec{repr: name} }

// PackageFromID selects a package by its full cargo id.
func PackageFromID(id model.PackageID) PackageSpec { return PackageSpec{repr: id.Repr} }

// Repr returns what is passed to --package. The zero value selects any
// package.
func (p PackageSpec) Repr() string {
	if p.repr == "" {
		return anyPackage
	}
	return p.repr
}

func (p PackageSpec) String() string {
	return p.Repr()
}

// FeatureSpec describes a set of enabled cargo features. The zero value
// leaves cargo's defaults alone.
type FeatureSpec struct {
	all       bool
	noDefault bool
	features  []string
}

// Features enables features on top of the default features.
func Features(features ...string) FeatureSpec {
	return FeatureSpec{features: append([]string(nil), features...)}
}

// FeaturesNoDefault enables only the given features.
func FeaturesNoDefault(features ...string) FeatureSpec {
	return FeatureSpec{noDefault: true, features: append([]string(nil), features...)}
}

// AllFeatures enables every feature.
func AllFeatures() FeatureSpec { return FeatureSpec{all: true} }

// DefaultFeatures enables only the default features.
func DefaultFeatures() FeatureSpec { return Features() }

// NoFeatures disables every feature, including the defaults.
func NoFeatures() FeatureSpec { return FeaturesNoDefault() }

// With returns a copy of the spec with feature added. Adding to an
// all-features spec is a no-op and is logged.
func (f FeatureSpec) With(logger zerolog.Logger, feature string) FeatureSpec {
	if f.all {
		logger.Info().Str("feature", feature).Msg("Ignoring feature append as all features are enabled")
		return f
	}
	out := f
	out.features = append(append([]string(nil), f.features...), feature)
	return out
}

// Args returns the cargo flags for the spec.
func (f FeatureSpec) Args() []string {
	if f.all {
		return []string{"--all-features"}
	}
	var args []string
	if len(f.features) > 0 {
		args = append(args, "--features", strings.Join(f.features, ","))
	}
	if f.noDefault {
		args = append(args, "--no-default-features")
	}
	return args
}
