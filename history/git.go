package history

// This file contains Git integration utilities for retrieving
// repository information.

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/perfgo/seacan/model"
)

// RepoRoot returns the top level directory of the git repository
// containing dir.
func RepoRoot(ctx context.Context, dir string) (string, error) {
	out, err := git(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not in a git repository: %w", err)
	}
	return out, nil
}

// GitInfo returns the commit, branch and repository name of dir.
func GitInfo(ctx context.Context, dir string) (*model.Git, error) {
	commit, err := git(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git commit: %w", err)
	}

	branch, err := git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to get git branch: %w", err)
	}

	info := &model.Git{Commit: commit, Branch: branch}
	if root, err := RepoRoot(ctx, dir); err == nil {
		info.Repo = filepath.Base(root)
	}
	return info, nil
}

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
