package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/model"
)

// ErrNotFound is returned when a resolver has no file for a coordinate.
var ErrNotFound = errors.New("artifact not found")

// Resolution is what a Resolver knows about a coordinate.
type Resolution struct {
	Path string
	// LocalModule is true when the coordinate is built in the same session
	// rather than fetched as a prebuilt package.
	LocalModule bool
}

// Resolver maps a coordinate to a local file.
type Resolver interface {
	Resolve(ctx context.Context, c model.Coordinate) (Resolution, error)
}

// Module is a component built in the current session.
type Module struct {
	Coordinate model.Coordinate
	Path       string
}

// LocalRepository resolves coordinates against an on-disk repository and a
// set of session modules.
type LocalRepository struct {
	root    string
	modules map[string]Module
}

// NewLocalRepository creates a resolver rooted at root. Modules take
// precedence over the repository.
func NewLocalRepository(root string, modules ...Module) *LocalRepository {
	r := &LocalRepository{
		root:    root,
		modules: make(map[string]Module, len(modules)),
	}
	for _, m := range modules {
		r.modules[moduleKey(m.Coordinate)] = m
	}
	return r
}

// moduleKey matches modules by group, name and version.
func moduleKey(c model.Coordinate) string {
	return c.Group + ":" + c.Name + ":" + c.Version
}

// Resolve implements Resolver. A repository path is returned even when the
// file does not exist yet; the caller decides how to treat a missing file.
func (r *LocalRepository) Resolve(ctx context.Context, c model.Coordinate) (Resolution, error) {
	logger := ctxlog.FromContext(ctx)

	if m, ok := r.modules[moduleKey(c)]; ok {
		logger.Debug("Resolved session module.", "coordinate", c.String(), "path", m.Path)
		return Resolution{Path: m.Path, LocalModule: true}, nil
	}
	if r.root == "" {
		return Resolution{}, ErrNotFound
	}

	path := r.PathOf(c)
	if _, err := os.Stat(path); err != nil {
		logger.Warn("Artifact has no file in the repository, its content will not be copied.",
			"coordinate", c.String(), "path", path)
	}
	return Resolution{Path: path}, nil
}

// PathOf returns the repository location of a coordinate.
func (r *LocalRepository) PathOf(c model.Coordinate) string {
	segments := append([]string{r.root}, strings.Split(c.Group, ".")...)
	segments = append(segments, c.Name, c.Version, c.FileName())
	return filepath.Join(segments...)
}
