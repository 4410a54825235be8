package history

// This file contains shared history utilities for loading, parsing and
// selecting recorded runs.

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/perfgo/seacan/model"
)

// FileName is the name of the run record inside each run directory.
const FileName = "history.json"

// ErrNoRuns is returned when the history directory holds no runs.
var ErrNoRuns = errors.New("no history entries found")

type Entry struct {
	Run      model.Run
	FullPath string
}

// DefaultDir returns the history directory inside a repository.
func DefaultDir(repoRoot string) string {
	return filepath.Join(repoRoot, ".seacan", "history")
}

// LoadEntries loads all run records below dir. Records that do not parse
// are logged and skipped. A missing dir yields no entries.
func LoadEntries(logger zerolog.Logger, dir string) ([]Entry, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var entries []Entry

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		historyPath := filepath.Join(path, FileName)
		if _, err := os.Stat(historyPath); err != nil {
			return nil
		}

		run, err := parseRunJSON(historyPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", historyPath).Msg("Failed to parse history.json")
			return nil
		}

		entries = append(entries, Entry{
			Run:      run,
			FullPath: path,
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk history directory: %w", err)
	}

	return entries, nil
}

// parseRunJSON parses a history.json file.
func parseRunJSON(path string) (model.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Run{}, err
	}

	var run model.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return model.Run{}, err
	}

	return run, nil
}

// SortNewestFirst orders entries by timestamp, newest first.
func SortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Run.Timestamp.After(entries[j].Run.Timestamp)
	})
}

// Find selects an entry from entries sorted newest first. The argument is
// either an index counting back from the last run (0 for the last run, -1
// for the one before) or a prefix of the run ID.
func Find(entries []Entry, arg string) (*Entry, error) {
	if len(entries) == 0 {
		return nil, ErrNoRuns
	}

	if parsed, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if parsed > 0 {
			return nil, fmt.Errorf("invalid index: %s (use 0 for last, -1 for second-to-last, -2 for third-to-last, etc.)", arg)
		}
		index := int(-parsed)
		if index >= len(entries) {
			return nil, fmt.Errorf("index %s out of range (only %d history entries)", arg, len(entries))
		}
		return &entries[index], nil
	}

	prefix := strings.ToLower(arg)
	for i := range entries {
		if strings.HasPrefix(strings.ToLower(entries[i].Run.ID), prefix) {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no history entry found matching ID: %s", arg)
}
