package cargocmd

// cargo.go locates the cargo executable and runs small cargo queries.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// EnvVar is the variable cargo itself sets for build scripts and
// subcommands; it points at the cargo executable in use.
const EnvVar = "CARGO"

// ErrNotFound is returned when no cargo executable can be located.
var ErrNotFound = errors.New("cargo not found")

// Find returns the cargo executable to use. An explicit path or command
// name wins, then $CARGO, then PATH, then ~/.cargo/bin/cargo where rustup
// installs it.
func Find(explicit string) (string, error) {
	if explicit != "" {
		path, err := exec.LookPath(explicit)
		if err != nil {
			return "", fmt.Errorf("configured cargo %q: %w", explicit, err)
		}
		return path, nil
	}

	if fromEnv := os.Getenv(EnvVar); fromEnv != "" {
		if _, err := os.Stat(fromEnv); err == nil {
			return fromEnv, nil
		}
	}

	if path, err := exec.LookPath("cargo"); err == nil {
		return path, nil
	}

	var rustupPath string
	if home, err := os.UserHomeDir(); err == nil {
		rustupPath = filepath.Join(home, ".cargo", "bin", "cargo")
		if _, err := os.Stat(rustupPath); err == nil {
			return rustupPath, nil
		}
	}

	return "", fmt.Errorf("%w on PATH or at %s: install Rust with rustup or set %s", ErrNotFound, rustupPath, EnvVar)
}

// Version runs 'cargo --version' and returns its trimmed output.
func Version(ctx context.Context, program string) (string, error) {
	stdout, _, err := run(ctx, program, "", "--version")
	if err != nil {
		return "", fmt.Errorf("failed to get cargo version: %w", err)
	}
	return stdout, nil
}

// LocateWorkspace runs 'cargo locate-project --workspace' in dir and
// returns the directory of the workspace manifest. Common failures are
// turned into short messages.
func LocateWorkspace(ctx context.Context, program, dir string) (string, error) {
	stdout, stderr, err := run(ctx, program, dir, "locate-project", "--workspace", "--message-format", "plain")
	if err != nil {
		// Simplify common error messages
		if strings.Contains(stderr, "could not find `Cargo.toml`") {
			return "", fmt.Errorf("no cargo workspace at %q: Cargo.toml not found", dir)
		}
		if strings.Contains(stderr, "failed to parse manifest") {
			return "", fmt.Errorf("invalid cargo workspace at %q: manifest does not parse", dir)
		}

		lines := strings.Split(stderr, "\n")
		if lines[0] != "" {
			return "", fmt.Errorf("invalid cargo workspace at %q: %s", dir, lines[0])
		}
		return "", fmt.Errorf("invalid cargo workspace at %q: %w", dir, err)
	}

	if stdout == "" {
		return "", fmt.Errorf("cargo locate-project printed nothing for %q", dir)
	}
	return filepath.Dir(stdout), nil
}

func run(ctx context.Context, program, dir string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return strings.TrimSpace(stdout.String()), strings.TrimSpace(stderr.String()), err
}
