package cli

// This file contains the view command for displaying runs from history.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/model"
)

// viewOrder is the display priority of stored files.
var viewOrder = []model.RunFileType{
	model.RunFileDiagnostics,
	model.RunFileStderr,
	model.RunFileStdout,
	model.RunFileTests,
}

func isFileName(s string) bool {
	for _, t := range viewOrder {
		if t.String() == s {
			return true
		}
	}
	return false
}

func removeFirstDashDash(in []string) []string {
	if len(in) > 0 && in[0] == "--" {
		return in[1:]
	}
	return in
}

func parseViewArgs(in []string) (idArg string, fileArgs []string) {
	if len(in) == 0 {
		return "0", nil
	}

	// If first arg is "--", use default "0" and rest are file names
	if in[0] == "--" {
		return "0", in[1:]
	}

	// A file name without an ID views the last run
	if isFileName(in[0]) {
		return "0", in
	}

	// A negative index is "-" followed by only digits (e.g., "-1", "-2");
	// anything else starting with "-" is not an ID
	if len(in[0]) > 1 && in[0][0] == '-' {
		if _, err := strconv.ParseInt(in[0], 10, 64); err != nil {
			return "0", removeFirstDashDash(in[1:])
		}
	}

	return in[0], removeFirstDashDash(in[1:])
}

func (a *App) view(ctx *cli.Context) error {
	arg, fileArgs := parseViewArgs(ctx.Args().Slice())
	for _, f := range fileArgs {
		if !isFileName(f) {
			return fmt.Errorf("unknown file %q (use diagnostics, stderr, stdout or tests)", f)
		}
	}

	entries, err := a.loadHistory(ctx)
	if err != nil {
		return err
	}

	entry, err := history.Find(entries, arg)
	if err != nil {
		return err
	}

	return displayEntry(os.Stdout, entry, fileArgs)
}

func displayEntry(w io.Writer, entry *history.Entry, fileArgs []string) error {
	r := entry.Run

	fmt.Fprintf(w, "=== %s run: %s ===\n", r.Type, shortID(r.ID))
	fmt.Fprintf(w, "Time: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n", r.Duration)
	fmt.Fprintf(w, "Exit Code: %d\n", r.ExitCode)
	if r.WorkDir != "" {
		fmt.Fprintf(w, "Working Dir: %s\n", r.WorkDir)
	}
	if r.Git != nil && r.Git.Commit != "" {
		fmt.Fprintf(w, "Git Commit: %s", shortID(r.Git.Commit))
		if r.Git.Branch != "" {
			fmt.Fprintf(w, " (%s)", r.Git.Branch)
		}
		fmt.Fprintln(w)
	}
	if r.Host != nil && r.Host.CargoVersion != "" {
		fmt.Fprintf(w, "Cargo: %s (%s/%s)\n", r.Host.CargoVersion, r.Host.OS, r.Host.Arch)
	}
	if r.Command != "" {
		fmt.Fprintf(w, "Command: %s\n", r.Command)
	}
	if r.Build != nil && r.Build.Executable != "" {
		fmt.Fprintf(w, "Executable: %s\n", r.Build.Executable)
	}
	if r.Test != nil {
		for _, a := range r.Test.Artifacts {
			fmt.Fprintf(w, "Target: %s (%s) %d tests\n", a.Target, a.Kind, len(a.Tests))
		}
		for _, f := range r.Test.Failures {
			fmt.Fprintf(w, "Listing failed: %s: %s\n", f.Target, f.Error)
		}
	}
	fmt.Fprintln(w)

	var selected []model.RunFile
	if len(fileArgs) > 0 {
		for _, name := range fileArgs {
			file, ok := findFile(r.Files, name)
			if !ok {
				return fmt.Errorf("run %s has no %s output", shortID(r.ID), name)
			}
			selected = append(selected, file)
		}
	} else {
		for _, t := range viewOrder {
			if file, ok := findFile(r.Files, t.String()); ok {
				selected = append(selected, file)
				break
			}
		}
	}

	if len(selected) == 0 {
		fmt.Fprintln(w, "No stored output")
		fmt.Fprintf(w, "History directory: %s\n", entry.FullPath)
		return nil
	}

	for _, file := range selected {
		path := filepath.Join(entry.FullPath, file.File)
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file.Type, err)
		}
		fmt.Fprintf(w, "--- %s: %s ---\n", file.Type, path)
		fmt.Fprintln(w, string(data))
	}
	return nil
}

func findFile(files []model.RunFile, name string) (model.RunFile, bool) {
	for _, f := range files {
		if f.Type.String() == name {
			return f, true
		}
	}
	return model.RunFile{}, false
}
