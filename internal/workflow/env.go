package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/specialistvlad/plugasm/internal/archive"
	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/assembly"
	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/descriptor"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/specialistvlad/plugasm/internal/resolver"
	"github.com/specialistvlad/plugasm/internal/syncdir"
)

// Attached types and classifiers.
const (
	TypeZip = "zip"
	TypeJar = "jar"

	ClassifierServerPacked = "teamcity-plugin-packed"
	ClassifierResources    = "teamcity-plugin-resources"
)

// Env is what both workflows share.
type Env struct {
	Project  config.Project
	Graph    *model.GraphNode
	Resolver resolver.Resolver
	Archiver archive.GroupWriter
	// Renderer defaults to the bundled descriptor templates when nil.
	Renderer descriptor.Renderer
}

// Attached is an archive produced by a workflow.
type Attached struct {
	Type       string
	Classifier string
	Path       string
	// Context describes how the archive is assembled, nil when it is not
	// described by an IDE artifact.
	Context *assembly.Context
}

// Result is the outcome of one workflow.
type Result struct {
	Contexts       []*assembly.Context
	Attached       []Attached
	DescriptorPath string
}

func (e *Env) workDir(parts ...string) string {
	return filepath.Join(append([]string{e.Project.WorkDir}, parts...)...)
}

// alternative returns the coordinate actually packaged for c. Poms are
// skipped; the war of the project is replaced by its single attached jar.
func (e *Env) alternative(ctx context.Context, c model.Coordinate) (model.Coordinate, bool) {
	logger := ctxlog.FromContext(ctx)
	switch c.Type {
	case "pom":
		logger.Debug("Skipping pom artifact.", "coordinate", c.String())
		return c, false
	case "war":
		p := e.Project.Coordinate
		if c.Group != p.Group || c.Name != p.Name {
			return c, true
		}
		var jars []model.Coordinate
		for _, a := range e.Project.Attached {
			if a.Type == "" || a.Type == TypeJar {
				jars = append(jars, a)
			}
		}
		if len(jars) == 1 {
			logger.Debug("Using attached jar instead of war.", "coordinate", c.String(), "jar", jars[0].String())
			return jars[0], true
		}
		logger.Warn("Project is packaged as war and has no single attached jar, skipped.",
			"coordinate", c.String(), "attached_jars", len(jars))
		return c, false
	default:
		return c, true
	}
}

// resolve resolves every node, applying alternatives.
func (e *Env) resolve(ctx context.Context, nodes []*model.GraphNode) ([]resolver.ResolvedArtifact, error) {
	artifacts := make([]resolver.ResolvedArtifact, 0, len(nodes))
	for _, n := range nodes {
		c, ok := e.alternative(ctx, n.Coordinate)
		if !ok {
			continue
		}
		a, err := resolver.ResolveCoordinate(ctx, e.Resolver, c, n.Local)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// placeNodes places the nodes into the directory of set and records a
// DependencyEntry for each of them. It returns the destination paths.
func (e *Env) placeNodes(ctx context.Context, set *assembly.SetBuilder, nodes []*model.GraphNode, failOnMissing bool) ([]string, error) {
	artifacts, err := e.resolve(ctx, nodes)
	if err != nil {
		return nil, err
	}
	placed, err := syncdir.Engine{FailOnMissing: failOnMissing}.Place(ctx, set.Dir(), artifacts)
	for _, p := range placed {
		set.Add(assembly.DependencyEntry{
			Coordinate:      p.Artifact.Coordinate,
			LocalModule:     p.Artifact.LocalModule,
			DestinationName: p.Name,
			SourcePath:      p.Artifact.Path,
		})
	}
	return syncdir.Destinations(placed), err
}

// placePlugins places explicitly requested plugin packages. They are
// recorded as references to the exploded agent assembly of the same name.
func (e *Env) placePlugins(ctx context.Context, set *assembly.SetBuilder, coords []model.Coordinate, failOnMissing bool) ([]string, error) {
	artifacts := make([]resolver.ResolvedArtifact, 0, len(coords))
	for _, c := range coords {
		a, err := resolver.ResolveCoordinate(ctx, e.Resolver, c, false)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	placed, err := syncdir.Engine{FailOnMissing: failOnMissing}.Place(ctx, set.Dir(), artifacts)
	for _, p := range placed {
		set.Add(assembly.ArtifactRefEntry{
			DestinationName: p.Name,
			AssemblyName:    assembly.AssemblyName("AGENT", p.Artifact.Coordinate.Name, "EXPLODED"),
		})
	}
	return syncdir.Destinations(placed), err
}

// prepareDescriptor resolves the descriptor and copies it to
// dir/teamcity-plugin.xml. The copy is skipped when there is no descriptor
// and missing descriptors are tolerated.
func (e *Env) prepareDescriptor(ctx context.Context, dir, generated, tmpl string, data descriptor.Data, cfg config.Descriptor) (string, error) {
	path, err := descriptor.Prepare(ctx, descriptor.Options{
		Path:          cfg.Path,
		GeneratedPath: generated,
		Template:      tmpl,
		Data:          data,
		DoNotGenerate: cfg.DoNotGenerate,
		FailOnMissing: cfg.FailOnMissing,
		Renderer:      e.Renderer,
	})
	if err != nil {
		return "", err
	}
	if err := copyFile(path, filepath.Join(dir, syncdir.KeptFileName)); err != nil {
		if asmerr.Is(err, asmerr.MissingSourceArtifact) {
			return path, nil
		}
		return "", err
	}
	return path, nil
}

func (e *Env) descriptorData(pluginName string, d config.Descriptor) descriptor.Data {
	p := e.Project
	return descriptor.Data{
		Project: descriptor.Project{
			GroupID:     p.Coordinate.Group,
			ArtifactID:  p.Coordinate.Name,
			Version:     p.Coordinate.Version,
			Description: p.Description,
			Vendor:      p.Vendor,
			VendorURL:   p.VendorURL,
		},
		PluginName:                pluginName,
		DisplayName:               firstNonEmpty(p.DisplayName, pluginName),
		Version:                   firstNonEmpty(d.PluginVersion, p.Coordinate.Version),
		AllowRuntimeReload:        d.AllowRuntimeReload,
		NodeResponsibilitiesAware: d.NodeResponsibilitiesAware,
		UseSeparateClassloader:    d.UseSeparateClassloader,
		PluginDependencies:        d.PluginDependencies,
		ToolDependencies:          d.ToolDependencies,
		Parameters:                d.Parameters,
	}
}

// copyFile wraps syncdir.CopyFile with assembly error kinds.
func copyFile(src, dst string) error {
	if src == "" {
		return &asmerr.Error{Kind: asmerr.MissingSourceArtifact, Op: "copy file", Dest: dst, Err: fmt.Errorf("no source")}
	}
	if err := syncdir.CopyFile(src, dst); err != nil {
		kind := asmerr.IOFailure
		if errors.Is(err, fs.ErrNotExist) {
			kind = asmerr.MissingSourceArtifact
		}
		return &asmerr.Error{Kind: kind, Op: "copy file", Source: src, Dest: dst, Err: err}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
