// Package testutil writes fake cargo and test binaries as shell scripts.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"

	"al.essio.dev/pkg/shellescape"
	"github.com/stretchr/testify/require"
)

// Response is what a fake command prints for one argument list.
type Response struct {
	Stdout string
	Stderr string
	Exit   int
}

// SkipIfNoShell skips tests that need /bin/sh.
func SkipIfNoShell(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake commands are POSIX shell scripts")
	}
}

// WriteScript writes an executable /bin/sh script and returns its path.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// FakeCommand writes a script that answers according to its space-joined
// arguments, falling back to fallback for anything else. Every invocation
// is appended to a calls file, see Calls.
func FakeCommand(t testing.TB, dir, name string, responses map[string]Response, fallback Response) string {
	t.Helper()
	SkipIfNoShell(t)

	keys := make([]string, 0, len(responses))
	for k := range responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body strings.Builder
	fmt.Fprintf(&body, "printf '%%s\\n' \"$*\" >> %s\n", shellescape.Quote(callsPath(dir, name)))
	body.WriteString("case \"$*\" in\n")
	for i, k := range keys {
		fmt.Fprintf(&body, "%s)\n", shellescape.Quote(k))
		writeResponse(t, &body, dir, fmt.Sprintf("%s.%d", name, i), responses[k])
		body.WriteString(";;\n")
	}
	body.WriteString("*)\n")
	writeResponse(t, &body, dir, name+".default", fallback)
	body.WriteString(";;\nesac\n")

	return WriteScript(t, dir, name, body.String())
}

func writeResponse(t testing.TB, body *strings.Builder, dir, stem string, r Response) {
	t.Helper()
	stdout := filepath.Join(dir, stem+".stdout")
	stderr := filepath.Join(dir, stem+".stderr")
	require.NoError(t, os.WriteFile(stdout, []byte(r.Stdout), 0o644))
	require.NoError(t, os.WriteFile(stderr, []byte(r.Stderr), 0o644))
	fmt.Fprintf(body, "  cat %s\n", shellescape.Quote(stdout))
	fmt.Fprintf(body, "  cat %s >&2\n", shellescape.Quote(stderr))
	fmt.Fprintf(body, "  exit %d\n", r.Exit)
}

func callsPath(dir, name string) string {
	return filepath.Join(dir, name+".calls")
}

// Calls returns the argument lists a fake command was invoked with, in
// order.
func Calls(t testing.TB, script string) []string {
	t.Helper()
	data, err := os.ReadFile(callsPath(filepath.Dir(script), filepath.Base(script)))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}
