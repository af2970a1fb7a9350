package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Task describes a unit of work: one regular file that passed the
// allow-list.
type Task struct {
	path string
	info os.FileInfo
}

// WalkWithDepth uses WalkDir and cuts branches by depth. Entry errors
// are handed to fn, which decides whether to skip or stop. Symlinks
// are not followed: WalkDir never descends into symlinked directories,
// and the scanner only queues regular files.
func WalkWithDepth(ctx context.Context, root string, maxDepth int, fn func(path string, d os.DirEntry, err error) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return fn(path, d, err)
		}
		if maxDepth > 0 {
			rel, _ := filepath.Rel(root, path)
			if rel != "." && depthCount(rel) > maxDepth {
				return filepath.SkipDir
			}
		}
		return fn(path, d, nil)
	})
}

func depthCount(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}
