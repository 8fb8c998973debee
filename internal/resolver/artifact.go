package resolver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/model"
)

const (
	// DescriptorName is the runtime descriptor inside every plugin package.
	DescriptorName = "teamcity-plugin.xml"
	// AgentPluginNameKey is the marker key naming an agent plugin archive.
	AgentPluginNameKey = "AGENT_PLUGIN_NAME"
)

var markerPattern = regexp.MustCompile(`@@([\s\-\w]+)=([\s\w\-]+)@@`)

// ResolvedArtifact is a selected coordinate together with its local file.
type ResolvedArtifact struct {
	Coordinate  model.Coordinate
	Path        string
	LocalModule bool
	// Missing is set when the resolver had no file for the coordinate.
	Missing bool
}

// ResolveNode resolves the coordinate of a graph node. ErrNotFound is not an
// error here: the artifact comes back with Missing set so that the sync
// engine can apply its missing-source policy.
func ResolveNode(ctx context.Context, r Resolver, node *model.GraphNode) (ResolvedArtifact, error) {
	return ResolveCoordinate(ctx, r, node.Coordinate, node.Local)
}

// ResolveCoordinate is ResolveNode for a bare coordinate. local forces the
// local-module flag.
func ResolveCoordinate(ctx context.Context, r Resolver, c model.Coordinate, local bool) (ResolvedArtifact, error) {
	res, err := r.Resolve(ctx, c)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			ctxlog.FromContext(ctx).Warn("Artifact could not be resolved.", "coordinate", c.String())
			return ResolvedArtifact{Coordinate: c, LocalModule: local, Missing: true}, nil
		}
		return ResolvedArtifact{}, fmt.Errorf("resolve %s: %w", c, err)
	}
	return ResolvedArtifact{
		Coordinate:  c,
		Path:        res.Path,
		LocalModule: res.LocalModule || local,
		Missing:     res.Path == "",
	}, nil
}

// FileName returns the name the artifact gets in an assembly directory.
//
// Agent plugin archives are named after their artifact, or after the
// AGENT_PLUGIN_NAME marker found in their own descriptor.
func (a ResolvedArtifact) FileName(ctx context.Context) string {
	name := a.Coordinate.FileName()
	if a.Path != "" {
		name = filepath.Base(a.Path)
	}
	if a.Coordinate.Classifier != model.ClassifierAgentPlugin {
		return name
	}

	ext := a.Coordinate.Extension()
	name = a.Coordinate.Name + "." + ext
	if a.Path == "" {
		return name
	}
	markers, err := ReadMarkers(a.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ctxlog.FromContext(ctx).Warn("Error while reading agent plugin name.", "path", a.Path, "error", err)
		}
		return name
	}
	if v, ok := markers[AgentPluginNameKey]; ok && v != "" {
		return v + "." + ext
	}
	return name
}

// ReadMarkers returns the @@KEY=VALUE@@ markers of the descriptor stored in
// the archive at path. A missing descriptor yields an empty map.
func ReadMarkers(path string) (map[string]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != DescriptorName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", DescriptorName, path, err)
		}
		defer rc.Close()

		markers := make(map[string]string)
		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			if k, v, ok := ParseMarker(scanner.Text()); ok {
				markers[k] = v
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s in %s: %w", DescriptorName, path, err)
		}
		return markers, nil
	}
	return map[string]string{}, nil
}

// ParseMarker extracts the first @@KEY=VALUE@@ marker of a line.
func ParseMarker(line string) (key, value string, ok bool) {
	m := markerPattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}
