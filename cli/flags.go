package cli

// This file contains the flags shared by the build, test and run commands
// and their translation into build requests and selectors.

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/build"
	cargocmd "github.com/perfgo/seacan/cli/cargo"
	"github.com/perfgo/seacan/config"
	"github.com/perfgo/seacan/spec"
)

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "package",
			Aliases: []string{"p"},
			Usage:   "Package to build (default: all workspace packages)",
		},
		&cli.StringSliceFlag{
			Name:    "features",
			Aliases: []string{"F"},
			Usage:   "Features to activate",
		},
		&cli.BoolFlag{
			Name:  "all-features",
			Usage: "Activate all available features",
		},
		&cli.BoolFlag{
			Name:  "no-default-features",
			Usage: "Do not activate the default feature",
		},
		&cli.BoolFlag{
			Name:  "release",
			Usage: "Build with the release profile",
		},
		&cli.StringFlag{
			Name:  "target-dir",
			Usage: "Directory for all generated artifacts",
		},
		&cli.StringFlag{
			Name:  "manifest-dir",
			Usage: "Directory to run cargo in (default: current directory)",
		},
		&cli.StringFlag{
			Name:  "cargo",
			Usage: "Path to the cargo executable (default: $CARGO, PATH, ~/.cargo/bin/cargo)",
		},
		&cli.StringFlag{
			Name:  "color",
			Usage: "Coloring of compiler output: auto, always or never",
		},
	}
}

func testFlags() []cli.Flag {
	return append(buildFlags(),
		&cli.BoolFlag{Name: "lib", Usage: "Test only the library"},
		&cli.StringFlag{Name: "bin", Usage: "Test only the binaries matching this name pattern"},
		&cli.BoolFlag{Name: "bins", Usage: "Test all binaries"},
		&cli.StringFlag{Name: "test", Usage: "Test only the integration tests matching this name pattern"},
		&cli.BoolFlag{Name: "tests", Usage: "Test all integration tests"},
		&cli.StringFlag{Name: "example", Usage: "Test only the examples matching this name pattern"},
		&cli.BoolFlag{Name: "examples", Usage: "Test all examples"},
		&cli.StringFlag{Name: "bench", Usage: "Test only the benchmarks matching this name pattern"},
		&cli.BoolFlag{Name: "benches", Usage: "Test all benchmarks"},
		&cli.BoolFlag{
			Name:  "exact",
			Usage: "Match TESTNAME exactly instead of as a substring",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print the discovered tests as JSON",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Number of test binaries listed at once",
		},
		&cli.BoolFlag{
			Name:  "ignored",
			Usage: "Mark tests annotated with #[ignore]",
		},
	)
}

// targetSelection mirrors cargo test's target selection flags.
type targetSelection struct {
	lib      bool
	bin      string
	bins     bool
	test     string
	tests    bool
	example  string
	examples bool
	bench    string
	benches  bool
}

func targetSelectionFrom(ctx *cli.Context) targetSelection {
	return targetSelection{
		lib:      ctx.Bool("lib"),
		bin:      ctx.String("bin"),
		bins:     ctx.Bool("bins"),
		test:     ctx.String("test"),
		tests:    ctx.Bool("tests"),
		example:  ctx.String("example"),
		examples: ctx.Bool("examples"),
		bench:    ctx.String("bench"),
		benches:  ctx.Bool("benches"),
	}
}

var errConflictingTargets = errors.New("only one target selection flag may be given")

// typeSpec turns the selection into a TypeSpec. No flag selects every
// target type; more than one is rejected.
func (s targetSelection) typeSpec() (spec.TypeSpec, error) {
	var chosen []spec.TypeSpec
	if s.lib {
		chosen = append(chosen, spec.Lib())
	}
	if s.bin != "" {
		chosen = append(chosen, spec.Bin(s.bin))
	}
	if s.bins {
		chosen = append(chosen, spec.Bins())
	}
	if s.test != "" {
		chosen = append(chosen, spec.Integration(s.test))
	}
	if s.tests {
		chosen = append(chosen, spec.Integrations())
	}
	if s.example != "" {
		chosen = append(chosen, spec.Example(s.example))
	}
	if s.examples {
		chosen = append(chosen, spec.Examples())
	}
	if s.bench != "" {
		chosen = append(chosen, spec.Bench(s.bench))
	}
	if s.benches {
		chosen = append(chosen, spec.Benches())
	}

	switch len(chosen) {
	case 0:
		return spec.All(), nil
	case 1:
		return chosen[0], nil
	}

	names := make([]string, len(chosen))
	for i, c := range chosen {
		names[i] = c.String()
	}
	return spec.TypeSpec{}, fmt.Errorf("%w, got %s", errConflictingTargets, strings.Join(names, ", "))
}

// nameSpec builds the test name selector from the TESTNAME argument. Like
// libtest, a plain filter matches as a substring unless exact is set.
// Filters containing '*' are wildcard patterns.
func nameSpec(filter string, exact bool) spec.NameSpec {
	switch {
	case filter == "":
		return spec.Any()
	case exact:
		return spec.Exact(filter)
	case strings.Contains(filter, "*"):
		return spec.Wildcard(filter)
	default:
		return spec.Substring(filter)
	}
}

// featureSpec combines the feature flags.
func featureSpec(features []string, all, noDefault bool) spec.FeatureSpec {
	var names []string
	for _, f := range features {
		for _, name := range strings.FieldsFunc(f, func(r rune) bool { return r == ',' || r == ' ' }) {
			names = append(names, name)
		}
	}

	switch {
	case all:
		return spec.AllFeatures()
	case noDefault:
		return spec.FeaturesNoDefault(names...)
	default:
		return spec.Features(names...)
	}
}

// packageSpec returns the package selector for name.
func packageSpec(name string) spec.PackageSpec {
	if name == "" {
		return spec.AnyPackage()
	}
	return spec.PackageName(name)
}

// requestOptions merges command line flags over the configuration.
func requestOptions(ctx *cli.Context, cfg *config.Config) ([]build.RequestOption, error) {
	program, err := cargocmd.Find(firstNonEmpty(ctx.String("cargo"), cfg.Cargo))
	if err != nil {
		return nil, err
	}

	// Without an explicit directory, find the workspace root from here so
	// a missing Cargo.toml fails before the build starts.
	workspace := firstNonEmpty(ctx.String("manifest-dir"), cfg.Workspace)
	if workspace == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if workspace, err = cargocmd.LocateWorkspace(ctx.Context, program, cwd); err != nil {
			return nil, err
		}
	}

	return []build.RequestOption{
		build.WithProgram(program),
		build.WithWorkspace(workspace),
		build.WithPackage(packageSpec(ctx.String("package"))),
		build.WithFeatures(featureSpec(ctx.StringSlice("features"), ctx.Bool("all-features"), ctx.Bool("no-default-features"))),
		build.WithRelease(ctx.Bool("release") || cfg.Release),
		build.WithTargetDir(firstNonEmpty(ctx.String("target-dir"), cfg.TargetDir)),
		build.WithColor(firstNonEmpty(ctx.String("color"), cfg.Color)),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
