package diagnostic

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/perfgo/seacan/model"
)

// Failures cargo reports on stderr before any compiler runs.
var (
	ErrTargetNotFound   = errors.New("target not found")
	ErrPackageNotFound  = errors.New("package not found")
	ErrManifestNotFound = errors.New("manifest not found")
)

var (
	targetNotFoundRE   = regexp.MustCompile("error: no \\w+ target named `(.*?)`")
	packageNotFoundRE  = regexp.MustCompile("error: package ID specification `(.*?)` did not match any packages")
	manifestNotFoundRE = regexp.MustCompile("error: (?:could not find `Cargo.toml` in `(.*?)`|manifest path `(.*?)` does not exist)")
)

// Classify maps cargo's stderr to one of the sentinel errors. It returns nil
// when stderr does not match a known failure.
func Classify(stderr string) error {
	text := ansi.Strip(stderr)
	if m := targetNotFoundRE.FindStringSubmatch(text); m != nil {
		return fmt.Errorf("%w: `%s`", ErrTargetNotFound, m[1])
	}
	if m := packageNotFoundRE.FindStringSubmatch(text); m != nil {
		return fmt.Errorf("%w: `%s`", ErrPackageNotFound, m[1])
	}
	if m := manifestNotFoundRE.FindStringSubmatch(text); m != nil {
		return fmt.Errorf("%w: `%s`", ErrManifestNotFound, m[1]+m[2])
	}
	return nil
}

// FromStderr builds an error diagnostic from cargo's stderr for failures
// that produced no compiler message. The message is the first `error:`
// line, or the whole trimmed stderr.
func FromStderr(stderr string) model.BuildDiagnostic {
	text := strings.TrimSpace(ansi.Strip(stderr))
	raw, _ := json.Marshal(stderr)

	message := text
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "error:"); ok {
			message = strings.TrimSpace(rest)
			break
		}
	}
	if message == "" {
		message = "cargo failed without reporting an error"
	}

	return model.BuildDiagnostic{
		Severity: model.SeverityError,
		Message:  message,
		Rendered: message,
		Compiler: text,
		Raw:      raw,
	}
}
