package syncdir

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/fsutil"
)

// KeptFileName is never removed by Prune.
const KeptFileName = "teamcity-plugin.xml"

// Prune removes every file below dir that is neither in keep nor protected
// by ignore. Directories and KeptFileName are never removed.
//
// Ignore entries are either absolute paths, matched exactly, or paths
// relative to dir, which protect everything below them. Relative entries may
// also be globs such as "lib/**/*.so".
//
// Failing to remove a single file is logged and does not stop the pass. The
// removed paths are returned.
func Prune(ctx context.Context, dir string, keep []string, ignore []string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	existing, err := fsutil.Walk(dir)
	if err != nil {
		return nil, &asmerr.Error{Kind: asmerr.IOFailure, Op: "list directory", Dest: dir, Err: err}
	}

	kept := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		kept[filepath.Clean(k)] = struct{}{}
	}

	var stale []string
	for _, p := range existing {
		if _, ok := kept[p]; ok {
			continue
		}
		if !shouldRemove(dir, p, ignore) {
			continue
		}
		stale = append(stale, p)
	}
	if len(stale) == 0 {
		return nil, nil
	}

	logger.Warn("Found extra files, removing.", "dir", dir, "files", stale)
	removed := make([]string, 0, len(stale))
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			logger.Warn("Failed to remove extra file.", "path", p, "error", err)
			continue
		}
		removed = append(removed, p)
	}
	return removed, nil
}

func shouldRemove(dir, p string, ignore []string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	for _, entry := range ignore {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if filepath.IsAbs(entry) {
			if filepath.Clean(entry) == p {
				return false
			}
			continue
		}
		if fsutil.IsSubpath(rel, filepath.Clean(entry)) {
			return false
		}
		if ok, err := doublestar.Match(filepath.ToSlash(entry), filepath.ToSlash(rel)); err == nil && ok {
			return false
		}
	}

	info, err := os.Lstat(p)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if strings.EqualFold(info.Name(), KeptFileName) {
		return false
	}
	return true
}
