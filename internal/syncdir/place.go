package syncdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/resolver"
)

// Engine places resolved artifacts into directories.
type Engine struct {
	// FailOnMissing turns a missing source into an error. When unset, an
	// empty placeholder is written instead.
	FailOnMissing bool
}

// Placed describes what happened to one artifact.
type Placed struct {
	Artifact    resolver.ResolvedArtifact
	Name        string
	Dest        string
	Copied      bool
	Placeholder bool
}

// Place copies every artifact into dir under its derived file name. All
// artifacts are attempted; missing sources are reported together at the end
// when FailOnMissing is set. Any other failure aborts immediately.
func (e Engine) Place(ctx context.Context, dir string, artifacts []resolver.ResolvedArtifact) ([]Placed, error) {
	logger := ctxlog.FromContext(ctx).With("dir", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &asmerr.Error{Kind: asmerr.IOFailure, Op: "create directory", Dest: dir, Err: err}
	}

	placed := make([]Placed, 0, len(artifacts))
	var missing []error
	for _, a := range artifacts {
		name := a.FileName(ctx)
		p := Placed{Artifact: a, Name: name, Dest: filepath.Join(dir, name)}

		copied, err := e.place(a, p.Dest)
		switch {
		case err == nil:
			p.Copied = copied
			if copied {
				logger.Debug("Artifact copied.", "coordinate", a.Coordinate.String(), "dest", p.Dest)
			}
		case errors.Is(err, fs.ErrNotExist):
			missingErr := &asmerr.Error{
				Kind:       asmerr.MissingSourceArtifact,
				Op:         "copy dependency",
				Coordinate: a.Coordinate.String(),
				Source:     a.Path,
				Dest:       p.Dest,
				Err:        err,
			}
			if e.FailOnMissing {
				logger.Error("Can't find dependency to add to plugin.", "coordinate", a.Coordinate.String(), "source", a.Path)
				missing = append(missing, missingErr)
			} else {
				if err := placeholder(p.Dest); err != nil {
					return placed, &asmerr.Error{Kind: asmerr.IOFailure, Op: "create placeholder", Coordinate: a.Coordinate.String(), Dest: p.Dest, Err: err}
				}
				p.Placeholder = true
				logger.Warn("Dependency not found, created an empty placeholder.", "coordinate", a.Coordinate.String(), "source", a.Path, "dest", p.Dest)
			}
		default:
			return placed, &asmerr.Error{
				Kind:       asmerr.IOFailure,
				Op:         "copy dependency",
				Coordinate: a.Coordinate.String(),
				Source:     a.Path,
				Dest:       p.Dest,
				Err:        err,
			}
		}
		placed = append(placed, p)
	}
	return placed, errors.Join(missing...)
}

// place copies the artifact to dest when it is out of date. It reports
// whether a copy happened; a missing source yields an fs.ErrNotExist error.
func (e Engine) place(a resolver.ResolvedArtifact, dest string) (bool, error) {
	if a.Missing || a.Path == "" {
		return false, fmt.Errorf("no file resolved for %s: %w", a.Coordinate, fs.ErrNotExist)
	}
	src, err := os.Stat(a.Path)
	if err != nil {
		return false, err
	}
	if src.IsDir() {
		return false, fmt.Errorf("%s is a directory", a.Path)
	}

	dst, err := os.Stat(dest)
	upToDate := err == nil && !a.LocalModule && dst.Size() == src.Size()
	if upToDate {
		return false, nil
	}
	if err := CopyFile(a.Path, dest); err != nil {
		return false, err
	}
	return true, nil
}

// placeholder creates an empty file unless dest already exists.
func placeholder(dest string) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return err
	}
	return f.Close()
}

// Destinations returns the destination paths of placed artifacts.
func Destinations(placed []Placed) []string {
	out := make([]string, len(placed))
	for i, p := range placed {
		out[i] = p.Dest
	}
	return out
}
