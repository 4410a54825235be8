package cli

// This file contains the list command for displaying previous runs.

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/model"
)

// loadHistory loads every recorded run, newest first.
func (a *App) loadHistory(ctx *cli.Context) ([]history.Entry, error) {
	dir, err := a.historyDir(ctx.Context)
	if err != nil {
		return nil, err
	}

	entries, err := history.LoadEntries(a.logger, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	history.SortNewestFirst(entries)
	return entries, nil
}

// filterEntries keeps entries whose working directory contains path and
// whose type is runType. Empty filters match everything.
func filterEntries(entries []history.Entry, path string, runType model.RunType) []history.Entry {
	var filtered []history.Entry
	for _, entry := range entries {
		if path != "" && !strings.Contains(entry.Run.WorkDir, path) {
			continue
		}
		if runType != "" && entry.Run.Type != runType {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func (a *App) list(ctx *cli.Context) error {
	entries, err := a.loadHistory(ctx)
	if err != nil {
		return err
	}

	filterPath := ctx.String("path")
	filtered := filterEntries(entries, filterPath, model.RunType(ctx.String("type")))
	if len(filtered) == 0 {
		if filterPath != "" {
			fmt.Printf("No history entries found matching path: %s\n", filterPath)
		} else {
			fmt.Println("No history entries found")
		}
		return nil
	}

	printEntries(os.Stdout, filtered, ctx.Int("limit"))
	return nil
}

func printEntries(w io.Writer, entries []history.Entry, limit int) {
	display := entries
	if limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	fmt.Fprintf(w, "\n=== History (%d total) ===\n\n", len(entries))

	for _, entry := range display {
		r := entry.Run
		timestamp := r.Timestamp.Format("2006-01-02 15:04:05")
		duration := r.Duration.Round(time.Millisecond)

		status := "✓"
		if r.ExitCode != 0 {
			status = "✗"
		}

		fmt.Fprintf(w, "%s  %s  %-5s  [%s]  exit=%d  id=%s\n", status, timestamp, r.Type, duration, r.ExitCode, shortID(r.ID))
		if len(r.Args) > 1 {
			fmt.Fprintf(w, "   Args: %s\n", strings.Join(r.Args[1:], " "))
		}
		if r.WorkDir != "" {
			fmt.Fprintf(w, "   Path: %s\n", r.WorkDir)
		}
		if r.Git != nil && r.Git.Commit != "" {
			fmt.Fprintf(w, "   Commit: %s", shortID(r.Git.Commit))
			if r.Git.Branch != "" {
				fmt.Fprintf(w, " (%s)", r.Git.Branch)
			}
			fmt.Fprintln(w)
		}
		if d := r.Diagnostics; d.Errors+d.Warnings+d.Notes > 0 {
			fmt.Fprintf(w, "   Diagnostics: %d errors, %d warnings, %d notes\n", d.Errors, d.Warnings, d.Notes)
		}
		switch {
		case r.Build != nil:
			fmt.Fprintf(w, "   Target: %s", r.Build.Target)
			if r.Build.Executable != "" {
				fmt.Fprintf(w, " -> %s", r.Build.Executable)
			}
			fmt.Fprintln(w)
		case r.Test != nil:
			tests := 0
			for _, a := range r.Test.Artifacts {
				tests += len(a.Tests)
			}
			fmt.Fprintf(w, "   Tests: %d in %d targets (%s, %s)", tests, len(r.Test.Artifacts), r.Test.TypeSpec, r.Test.NameSpec)
			if len(r.Test.Failures) > 0 {
				fmt.Fprintf(w, ", %d listing failures", len(r.Test.Failures))
			}
			fmt.Fprintln(w)
		}
		for _, f := range r.Files {
			fmt.Fprintf(w, "   %s: %s (%.1f KB)\n", f.Type, f.File, float64(f.Size)/1024)
		}
		fmt.Fprintf(w, "   %s\n", entry.FullPath)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "View a run: seacan view <ID>")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
