package history

// This file contains run recording for saving run metadata and outputs
// to the history directory.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/perfgo/seacan/model"
)

// NewRun starts a run record with a fresh ID and the local host filled in.
func NewRun(runType model.RunType, args []string) *model.Run {
	return &model.Run{
		ID:        uuid.NewString(),
		Type:      runType,
		Timestamp: time.Now(),
		Args:      args,
		Host: &model.Host{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
	}
}

// File is an output stored next to the run record.
type File struct {
	Type model.RunFileType
	Name string
	Data []byte
}

// JSONFile marshals v into a File.
func JSONFile(fileType model.RunFileType, name string, v any) (File, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return File{Type: fileType, Name: name, Data: data}, nil
}

// Recorder writes runs below a history directory.
type Recorder struct {
	logger zerolog.Logger
	dir    string
}

func NewRecorder(logger zerolog.Logger, dir string) *Recorder {
	return &Recorder{logger: logger, dir: dir}
}

// Dir returns the history directory.
func (r *Recorder) Dir() string {
	return r.dir
}

// RunDirName returns <timestamp>-<commit>-<id> for run, shortening commit
// and ID to eight characters.
func RunDirName(run *model.Run) string {
	shortCommit := "nogit"
	if run.Git != nil && run.Git.Commit != "" {
		shortCommit = short(run.Git.Commit)
	}
	return fmt.Sprintf("%s-%s-%s", run.Timestamp.Format("20060102-150405"), shortCommit, short(run.ID))
}

// Record creates the run directory, writes the non-empty files into it and
// finally writes history.json. It returns the run directory.
func (r *Recorder) Record(run *model.Run, files ...File) (string, error) {
	runDir := filepath.Join(r.dir, RunDirName(run))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		if err := os.WriteFile(filepath.Join(runDir, f.Name), f.Data, 0644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
		run.Files = append(run.Files, model.RunFile{
			Type: f.Type,
			Size: uint64(len(f.Data)),
			File: f.Name,
		})
	}

	if err := writeRun(runDir, run); err != nil {
		return "", err
	}

	r.logger.Debug().Str("dir", runDir).Str("id", run.ID).Msg("Recorded run")
	return runDir, nil
}

// Rewrite replaces the history.json of an already recorded entry.
func Rewrite(entry Entry) error {
	return writeRun(entry.FullPath, &entry.Run)
}

func writeRun(runDir string, run *model.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, FileName), data, 0644); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", err)
	}
	return nil
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
