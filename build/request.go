package build

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"al.essio.dev/pkg/shellescape"

	"github.com/perfgo/seacan/spec"
)

// MessageFormat makes cargo emit JSON messages whose rendered field keeps
// rustc's ANSI colors.
const MessageFormat = "--message-format=json-diagnostic-rendered-ansi"

// ErrInvalidRequest is returned when a request cannot be constructed.
var ErrInvalidRequest = errors.New("invalid build request")

// Mode selects what cargo is asked to build.
type Mode int

const (
	ModeBin Mode = iota
	ModeExample
	ModeTest
)

func (m Mode) String() string {
	switch m {
	case ModeBin:
		return "bin"
	case ModeExample:
		return "example"
	case ModeTest:
		return "test"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Request describes one cargo invocation. It is immutable once built.
type Request struct {
	mode      Mode
	name      string
	types     spec.TypeSpec
	workspace string
	pkg       spec.PackageSpec
	features  spec.FeatureSpec
	release   bool
	targetDir string
	program   string
	env       []string
	color     string
	extraArgs []string
}

// RequestOption configures a Request.
type RequestOption func(*Request) error

// WithWorkspace sets the directory cargo runs in.
func WithWorkspace(dir string) RequestOption {
	return func(r *Request) error {
		r.workspace = dir
		return nil
	}
}

// WithPackage restricts the build to a package. The default is any
// package in the workspace.
func WithPackage(pkg spec.PackageSpec) RequestOption {
	return func(r *Request) error {
		r.pkg = pkg
		return nil
	}
}

// WithFeatures sets the enabled features. The default is whatever cargo
// enables by default.
func WithFeatures(features spec.FeatureSpec) RequestOption {
	return func(r *Request) error {
		r.features = features
		return nil
	}
}

// WithRelease builds with the release profile.
func WithRelease(release bool) RequestOption {
	return func(r *Request) error {
		r.release = release
		return nil
	}
}

// WithTargetDir overrides cargo's target directory.
func WithTargetDir(dir string) RequestOption {
	return func(r *Request) error {
		r.targetDir = dir
		return nil
	}
}

// WithProgram sets the cargo executable. The default is "cargo".
func WithProgram(program string) RequestOption {
	return func(r *Request) error {
		if program == "" {
			return errors.New("empty cargo program")
		}
		r.program = program
		return nil
	}
}

// WithEnv adds an environment variable on top of the current environment.
func WithEnv(key, value string) RequestOption {
	return func(r *Request) error {
		if key == "" || strings.Contains(key, "=") {
			return fmt.Errorf("invalid environment variable name %q", key)
		}
		r.env = append(r.env, key+"="+value)
		return nil
	}
}

// WithColor sets cargo's --color flag: auto, always or never.
func WithColor(color string) RequestOption {
	return func(r *Request) error {
		switch color {
		case "", "auto", "always", "never":
			r.color = color
			return nil
		default:
			return fmt.Errorf("invalid color %q: must be auto, always or never", color)
		}
	}
}

// WithExtraArgs appends raw arguments to the cargo command line.
func WithExtraArgs(args ...string) RequestOption {
	return func(r *Request) error {
		for _, arg := range args {
			if strings.HasPrefix(arg, "--message-format") {
				return fmt.Errorf("%s conflicts with the message format seacan needs", arg)
			}
			if arg == "--" {
				return errors.New("extra arguments must not contain --")
			}
		}
		r.extraArgs = append(r.extraArgs, args...)
		return nil
	}
}

// NewBinRequest builds a binary target.
func NewBinRequest(name string, opts ...RequestOption) (*Request, error) {
	return newNamedRequest(ModeBin, name, opts)
}

// NewExampleRequest builds an example target.
func NewExampleRequest(name string, opts ...RequestOption) (*Request, error) {
	return newNamedRequest(ModeExample, name, opts)
}

// NewTestRequest compiles, without running, the test targets types selects.
func NewTestRequest(types spec.TypeSpec, opts ...RequestOption) (*Request, error) {
	if err := types.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return newRequest(&Request{mode: ModeTest, types: types}, opts)
}

func newNamedRequest(mode Mode, name string, opts []RequestOption) (*Request, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty %s name", ErrInvalidRequest, mode)
	}
	return newRequest(&Request{mode: mode, name: name}, opts)
}

func newRequest(r *Request, opts []RequestOption) (*Request, error) {
	r.pkg = spec.AnyPackage()
	r.program = "cargo"
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	if r.release && slices.Contains(r.extraArgs, "--profile") {
		return nil, fmt.Errorf("%w: --release conflicts with --profile", ErrInvalidRequest)
	}
	return r, nil
}

// Mode returns what the request builds.
func (r *Request) Mode() Mode { return r.mode }

// Name returns the bin or example name; it is empty for test requests.
func (r *Request) Name() string { return r.name }

// Types returns the test target selection; it is All for non-test requests.
func (r *Request) Types() spec.TypeSpec {
	if r.mode != ModeTest {
		return spec.All()
	}
	return r.types
}

// Workspace returns the directory cargo runs in; empty means the current
// directory.
func (r *Request) Workspace() string { return r.workspace }

// Program returns the cargo executable.
func (r *Request) Program() string { return r.program }

// Env returns the extra environment as KEY=VALUE pairs.
func (r *Request) Env() []string { return slices.Clone(r.env) }

// Args returns the cargo arguments, without the program.
func (r *Request) Args() []string {
	var args []string
	switch r.mode {
	case ModeTest:
		args = append(args, "test", "--no-run")
	default:
		args = append(args, "build")
	}
	args = append(args, MessageFormat, "--package", r.pkg.Repr())
	args = append(args, r.features.Args()...)
	if r.release {
		args = append(args, "--release")
	}
	if r.targetDir != "" {
		args = append(args, "--target-dir", r.targetDir)
	}
	if r.color != "" {
		args = append(args, "--color", r.color)
	}

	switch r.mode {
	case ModeBin:
		args = append(args, "--bin", r.name)
	case ModeExample:
		args = append(args, "--example", r.name)
	case ModeTest:
		args = append(args, r.types.CargoArgs()...)
	}
	return append(args, r.extraArgs...)
}

// CommandString renders the invocation as a shell command.
func (r *Request) CommandString() string {
	return shellescape.QuoteCommand(append([]string{r.program}, r.Args()...))
}
