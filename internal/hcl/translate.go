// This file translates the HCL schema structs into the format-agnostic
// configuration model defined in the config package.

package hcl

import (
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/fsutil"
	"github.com/specialistvlad/plugasm/internal/model"
)

// translateProject converts the project block. A relative base_dir, and the
// default one, are anchored at dir, the directory of the defining file.
func (l *Loader) translateProject(b *projectBlock, dir string, out *config.Project) error {
	attached, err := parseCoordinates("attached", b.Attached)
	if err != nil {
		return err
	}
	baseDir := dir
	if b.BaseDir != "" {
		baseDir = fsutil.AbsOr(dir, b.BaseDir)
	}
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}

	*out = config.Project{
		Coordinate: model.Coordinate{
			Group:   b.GroupID,
			Name:    b.ArtifactID,
			Version: b.Version,
			Type:    b.Packaging,
		},
		DisplayName: b.DisplayName,
		Description: b.Description,
		Vendor:      b.Vendor,
		VendorURL:   b.VendorURL,
		BaseDir:     baseDir,
		BuildOutput: b.BuildOutput,
		WorkDir:     b.WorkDir,
		Attached:    attached,
		Webapp:      b.Webapp,
	}
	return nil
}

func translateResolver(b *resolverBlock) (config.Resolver, error) {
	r := config.Resolver{Repository: b.Repository, CacheSize: b.CacheSize}
	for _, m := range b.Modules {
		c, err := model.ParseCoordinate(m.Coordinate)
		if err != nil {
			return config.Resolver{}, fmt.Errorf("resolver module: %w", err)
		}
		r.Modules = append(r.Modules, config.Module{Coordinate: c, Path: m.Path})
	}
	return r, nil
}

func translateDescriptor(b *descriptorBlock) config.Descriptor {
	if b == nil {
		return config.Descriptor{}
	}
	return config.Descriptor{
		Path:                      b.Path,
		DoNotGenerate:             b.DoNotGenerate,
		FailOnMissing:             b.FailOnMissing,
		PluginVersion:             b.PluginVersion,
		AllowRuntimeReload:        b.AllowRuntimeReload,
		NodeResponsibilitiesAware: b.NodeResponsibilitiesAware,
		UseSeparateClassloader:    b.UseSeparateClassloader,
		PluginDependencies:        b.PluginDependencies,
		ToolDependencies:          b.ToolDependencies,
		Parameters:                b.Parameters,
	}
}

func translateAgent(b *agentBlock) config.Agent {
	return config.Agent{
		Spec:                      b.Spec,
		PluginName:                b.PluginName,
		Exclusions:                b.Exclusions,
		Tool:                      b.Tool,
		FailOnMissingDependencies: b.FailOnMissingDependencies,
		IgnoreExtraFilesIn:        b.IgnoreExtraFilesIn,
		Descriptor:                translateDescriptor(b.Descriptor),
	}
}

func translateServer(b *serverBlock) (config.Server, error) {
	deps, err := parseCoordinates("plugin_dependencies", b.PluginDependencies)
	if err != nil {
		return config.Server{}, err
	}
	s := config.Server{
		Spec:                      b.Spec,
		PluginName:                b.PluginName,
		Exclusions:                b.Exclusions,
		BuildServerResources:      b.BuildServerResources,
		CommonSpec:                b.CommonSpec,
		CommonExclusions:          b.CommonExclusions,
		KotlinDSLPath:             b.KotlinDSLPath,
		RequireKotlinDSL:          b.RequireKotlinDSL,
		UISchemasPath:             b.UISchemasPath,
		IgnoreExtraFilesIn:        b.IgnoreExtraFilesIn,
		PluginDependencies:        deps,
		FailOnMissingDependencies: b.FailOnMissingDependencies,
		ExcludeAgent:              b.ExcludeAgent,
		Descriptor:                translateDescriptor(b.Descriptor),
	}
	for _, e := range b.Extras {
		s.Extras = append(s.Extras, config.Extra{Source: e.Source, DestDir: e.DestDir, DestName: e.DestName})
	}
	return s, nil
}

func parseCoordinates(attr string, values []string) ([]model.Coordinate, error) {
	var out []model.Coordinate
	for _, v := range values {
		c, err := model.ParseCoordinate(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", attr, err)
		}
		out = append(out, c)
	}
	return out, nil
}
