package cli

// This file contains artifact archiving for keeping built executables
// next to their run in the history directory.

import (
	"encoding/base32"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/perfgo/seacan/history"
	"github.com/perfgo/seacan/model"
)

// archiveName returns <hash>.<basename>.zst for an executable with the
// given content.
func archiveName(executable string, data []byte) string {
	sum := blake3.Sum256(data)
	hash := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(sum[:]))
	return hash + "." + filepath.Base(executable) + ".zst"
}

// archiveExecutable stores a zstd compressed copy of the executable of a
// recorded build in its run directory and records it in history.json.
func archiveExecutable(entry *history.Entry, executable string) error {
	data, err := os.ReadFile(executable)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", executable, err)
	}

	name := archiveName(executable, data)
	out, err := os.Create(filepath.Join(entry.FullPath, name))
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	encoder, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return fmt.Errorf("failed to compress %s: %w", executable, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to compress %s: %w", executable, err)
	}

	info, err := out.Stat()
	if err != nil {
		return err
	}
	entry.Run.Files = append(entry.Run.Files, model.RunFile{
		Type: model.RunFileExecutable,
		Size: uint64(info.Size()),
		File: name,
	})
	return history.Rewrite(*entry)
}
