package introspect

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/perfgo/seacan/model"
)

// ErrUnrecognizedLine is returned for listing output outside the libtest
// grammar.
var ErrUnrecognizedLine = errors.New("unrecognized listing line")

var (
	// Names may contain ": " themselves, the kind is after the last one.
	entryRE   = regexp.MustCompile(`^(.*): (\S*)$`)
	summaryRE = regexp.MustCompile(`^\d+ tests?, \d+ benchmarks?$`)
)

// ParseListing parses the output of a libtest binary run with
// --list --format=terse. Entries keep the harness order.
func ParseListing(logger zerolog.Logger, r io.Reader) ([]model.TestFn, error) {
	var tests []model.TestFn
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || summaryRE.MatchString(text) {
			continue
		}

		m := entryRE.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			return nil, fmt.Errorf("%w on line %d: %q", ErrUnrecognizedLine, line, text)
		}

		name, kind := m[1], m[2]
		switch kind {
		case "test":
			tests = append(tests, model.TestFn{Name: name, Kind: model.TestFnTest})
		case "bench", "benchmark":
			tests = append(tests, model.TestFn{Name: name, Kind: model.TestFnBench})
		default:
			logger.Warn().
				Str("name", name).
				Str("kind", kind).
				Msg("Skipping listing entry of unknown kind")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading listing: %w", err)
	}
	return tests, nil
}
