package indexing

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/lang"
	"github.com/standardbeagle/wci/internal/types"
)

// fileTask is one accepted file waiting for a worker. folder is the
// index of the workspace folder the file was found under.
type fileTask struct {
	absPath  string
	relPath  string
	folder   int
	size     int64
	modTime  time.Time
	language types.LanguageID
	decision lang.Decision
}

// scanWorkspace walks every workspace folder through the detector and
// collects the accepted files. Each directory is resolved through
// EvalSymlinks into one shared visited set, which both breaks symlink
// cycles and deduplicates overlapping roots, so a folder nested inside
// the primary root is walked once. Unreadable entries are logged and
// skipped; the only error returned is the context's.
func scanWorkspace(ctx context.Context, roots []string, det *lang.Detector, progress *Progress) ([]fileTask, error) {
	var tasks []fileTask
	visitedDirs := make(map[string]bool)

	for folder, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			debug.LogIndex("skipping folder %s: %v", root, err)
			continue
		}

		err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				debug.LogIndex("scan error at %s: %v", path, err)
				return nil
			}

			if info.IsDir() {
				real, err := filepath.EvalSymlinks(path)
				if err != nil {
					debug.LogIndex("skipping unresolvable dir %s: %v", path, err)
					return filepath.SkipDir
				}
				if visitedDirs[real] {
					return filepath.SkipDir
				}
				visitedDirs[real] = true

				if path != absRoot {
					if rel, err := filepath.Rel(absRoot, path); err == nil && det.ExcludesDir(rel) {
						return filepath.SkipDir
					}
				}
				return nil
			}

			// Walk reports symlinks with lstat info. Size and mtime
			// must come from the target; links to directories are not
			// files at all, and dangling links stay in so the worker
			// records the read failure.
			if info.Mode()&os.ModeSymlink != 0 {
				if st, err := os.Stat(path); err == nil {
					if st.IsDir() {
						return nil
					}
					info = st
				}
			}

			rel, err := filepath.Rel(absRoot, path)
			if err != nil {
				debug.LogIndex("scan error at %s: %v", path, err)
				return nil
			}
			decision := det.ShouldIndex(rel, info.Size())
			if decision == lang.Skip {
				return nil
			}

			tasks = append(tasks, fileTask{
				absPath:  path,
				relPath:  types.NormalizePath(rel),
				folder:   folder,
				size:     info.Size(),
				modTime:  info.ModTime(),
				language: det.Detect(rel),
				decision: decision,
			})
			progress.addTotal(1)
			if len(tasks)%1000 == 0 {
				debug.LogIndex("scanned %d files across %d directories", len(tasks), len(visitedDirs))
			}
			return nil
		})
		if err != nil {
			return tasks, err
		}
	}
	return tasks, nil
}
