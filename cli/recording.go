package cli

// This file contains run recording for saving run metadata and outputs
// to the history directory.

import (
	"context"
	"os"
	"path/filepath"

	"github.com/perfgo/seacan/build"
	cargocmd "github.com/perfgo/seacan/cli/cargo"
	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/model"
)

// historyDir returns the configured history directory, or the default one
// inside the git repository containing the working directory.
func (a *App) historyDir(ctx context.Context) (string, error) {
	if a.cfg.History.Dir != "" {
		return a.cfg.History.Dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := history.RepoRoot(ctx, cwd)
	if err != nil {
		return "", err
	}
	return history.DefaultDir(root), nil
}

// newRun starts a run record for the current invocation.
func (a *App) newRun(ctx context.Context, runType model.RunType, args []string, req *build.Request) *model.Run {
	run := history.NewRun(runType, args)

	if cwd, err := os.Getwd(); err == nil {
		run.WorkDir = cwd
		if root, err := history.RepoRoot(ctx, cwd); err == nil {
			if rel, err := filepath.Rel(root, cwd); err == nil {
				run.WorkDir = rel
			}
		}
		if info, err := history.GitInfo(ctx, cwd); err == nil {
			run.Git = info
		} else {
			a.logger.Debug().Err(err).Msg("No git information for run")
		}
	}

	if req != nil {
		run.Command = req.CommandString()
		if version, err := cargocmd.Version(ctx, req.Program()); err == nil {
			run.Host.CargoVersion = version
		} else {
			a.logger.Debug().Err(err).Msg("Failed to get cargo version")
		}
	}
	return run
}

// diagnosticFiles returns the history files for a build's diagnostics and
// cargo's stderr.
func diagnosticFiles(diagnostics []model.BuildDiagnostic, stderr string) []history.File {
	var files []history.File
	if len(diagnostics) > 0 {
		if f, err := history.JSONFile(model.RunFileDiagnostics, "diagnostics.json", diagnostics); err == nil {
			files = append(files, f)
		}
	}
	if stderr != "" {
		files = append(files, history.File{Type: model.RunFileStderr, Name: "stderr.txt", Data: []byte(stderr)})
	}
	return files
}

// recordRun stores run in history and returns the new entry, or nil when
// history is disabled or recording failed. Failures are logged and never
// fail the command.
func (a *App) recordRun(ctx context.Context, run *model.Run, files ...history.File) *history.Entry {
	if !a.cfg.History.Enabled {
		return nil
	}

	dir, err := a.historyDir(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record history")
		return nil
	}

	runDir, err := history.NewRecorder(a.logger, dir).Record(run, files...)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record history")
		return nil
	}
	a.logger.Debug().Str("dir", runDir).Msg("Run recorded")
	return &history.Entry{Run: *run, FullPath: runDir}
}
