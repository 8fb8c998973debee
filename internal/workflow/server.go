package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/assembly"
	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/descriptor"
	"github.com/specialistvlad/plugasm/internal/fsutil"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/specialistvlad/plugasm/internal/selector"
	"github.com/specialistvlad/plugasm/internal/syncdir"
)

// resourcesPrefix is the directory web resources are stored under inside
// the resources jar.
const resourcesPrefix = "buildServerResources"

// ServerWorkflow assembles the server plugin payload.
type ServerWorkflow struct {
	env       *Env
	cfg       config.Server
	agentSpec string
	agent     *Result
}

// NewServerWorkflow creates a ServerWorkflow. agentSpec is excluded from the
// server selection when the configuration asks for it, and the archives of
// agent are packaged into agent/.
func NewServerWorkflow(env *Env, cfg config.Server, agentSpec string, agent *Result) *ServerWorkflow {
	return &ServerWorkflow{env: env, cfg: cfg, agentSpec: agentSpec, agent: agent}
}

// serverRun carries the state of one Run.
type serverRun struct {
	*ServerWorkflow
	root     string
	exploded *assembly.Context
	created  []string
	result   *Result
}

// Run assembles plugin/<plugin> and packs it into dist/. It returns an
// empty Result when no server spec is configured.
func (w *ServerWorkflow) Run(ctx context.Context) (*Result, error) {
	if !w.cfg.NeedToBuild() {
		ctxlog.FromContext(ctx).Debug("No server spec configured, skipping server plugin.")
		return &Result{}, nil
	}

	artifactID := w.env.Project.Coordinate.Name
	pluginRoot := w.env.workDir("plugin")
	r := &serverRun{
		ServerWorkflow: w,
		root:           filepath.Join(pluginRoot, w.cfg.PluginName),
		result:         &Result{},
	}
	r.exploded = assembly.New(assembly.AssemblyName("SERVER", artifactID, "EXPLODED"), r.root)

	ctx = ctxlog.With(ctx, "assembly", r.exploded.Name)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Assembling server plugin.", "dir", r.root)

	steps := []func(context.Context) error{
		r.descriptor,
		r.serverLibs,
		r.resources,
		r.pluginDependencies,
		r.kotlinDSL,
		r.uiSchemas,
		r.common,
		r.extras,
		r.agentArchives,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return nil, err
		}
	}

	removed, err := syncdir.Prune(ctx, r.root, r.created, w.cfg.IgnoreExtraFilesIn)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		logger.Info("Removed stale files.", "count", len(removed))
	}

	idea := assembly.New(assembly.AssemblyName("SERVER", artifactID, "4IDEA"), pluginRoot)
	idea.Begin(r.root).Add(assembly.ArtifactRefEntry{AssemblyName: r.exploded.Name})

	dist := w.env.workDir("dist")
	zipPath := filepath.Join(dist, w.cfg.PluginName+".zip")
	packedPath := filepath.Join(dist, w.cfg.PluginName+"-packed.zip")
	if err := w.env.Archiver.WriteZip(ctx, r.root, zipPath); err != nil {
		return nil, err
	}
	if err := w.env.Archiver.WriteZip(ctx, pluginRoot, packedPath); err != nil {
		return nil, err
	}
	logger.Info("Server plugin archives created.", "path", zipPath, "packed", packedPath)

	zipped := assembly.New(assembly.AssemblyName("SERVER", artifactID, ""), dist)
	zipped.Begin(dist).Add(assembly.ArtifactRefEntry{DestinationName: filepath.Base(zipPath), AssemblyName: r.exploded.Name})
	packed := assembly.New(assembly.AssemblyName("SERVER-PACKED", artifactID, ""), dist)
	packed.Begin(dist).Add(assembly.ArtifactRefEntry{DestinationName: filepath.Base(packedPath), AssemblyName: idea.Name})

	zipCtx, packedCtx := zipped.Rebase(dist), packed.Rebase(dist)
	r.result.Contexts = []*assembly.Context{r.exploded.Rebase(r.root), idea.Rebase(pluginRoot), zipCtx, packedCtx}
	r.result.Attached = append(r.result.Attached,
		Attached{Type: TypeZip, Classifier: model.ClassifierServerPlugin, Path: zipPath, Context: zipCtx},
		Attached{Type: TypeZip, Classifier: ClassifierServerPacked, Path: packedPath, Context: packedCtx},
	)
	return r.result, nil
}

func (r *serverRun) descriptor(ctx context.Context) error {
	data := r.env.descriptorData(r.cfg.PluginName, r.cfg.Descriptor)
	path, err := r.env.prepareDescriptor(ctx, r.root,
		r.env.workDir("teamcity-plugin-generated.xml"), descriptor.ServerTemplate, data, r.cfg.Descriptor)
	if err != nil {
		return err
	}
	r.result.DescriptorPath = path
	r.exploded.Begin(r.root).Add(assembly.FileEntry{DestinationName: syncdir.KeptFileName, SourcePath: path})
	return nil
}

// serverLibs places the server selection into server/, and its agent
// plugin packages into agent/.
func (r *serverRun) serverLibs(ctx context.Context) error {
	exclusions := append([]string(nil), r.cfg.Exclusions...)
	if r.cfg.ExcludesAgent() {
		exclusions = append(exclusions, agentExclusions(r.agentSpec)...)
	}
	sel, err := selector.Select(ctx, r.env.Graph, r.cfg.Spec, exclusions)
	if err != nil {
		return err
	}

	var libs, agents []*model.GraphNode
	for _, n := range sel.Nodes {
		if strings.EqualFold(n.Coordinate.Classifier, model.ClassifierAgentPlugin) {
			agents = append(agents, n)
		} else {
			libs = append(libs, n)
		}
	}

	if err := r.place(ctx, "server", libs); err != nil {
		return err
	}
	if len(agents) > 0 {
		return r.place(ctx, "agent", agents)
	}
	return nil
}

func (r *serverRun) place(ctx context.Context, dir string, nodes []*model.GraphNode) error {
	set := r.exploded.Begin(filepath.Join(r.root, dir))
	dests, err := r.env.placeNodes(ctx, set, nodes, r.cfg.FailOnMissing())
	r.created = append(r.created, dests...)
	return err
}

// agentExclusions turns the agent spec into server exclusions. Match-all
// tokens are dropped, they would exclude the whole graph.
func agentExclusions(spec string) []string {
	var out []string
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" || selector.IsMatchAll(token) {
			continue
		}
		out = append(out, token)
	}
	return out
}

// resources packs the web resources of the plugin into
// server/<artifact>-teamcity-plugin-resources.jar.
func (r *serverRun) resources(ctx context.Context) error {
	sources := r.cfg.BuildServerResources
	if len(sources) == 0 {
		for _, webapp := range r.env.Project.Webapp {
			if dir := filepath.Join(webapp, "plugins", r.cfg.PluginName); fsutil.IsDir(dir) {
				sources = append(sources, dir)
			}
		}
	}
	if len(sources) == 0 {
		return nil
	}

	name := r.env.Project.Coordinate.Name + "-" + ClassifierResources + ".jar"
	dir := filepath.Join(r.root, "server")
	jar := filepath.Join(dir, name)
	if err := r.env.Archiver.WriteGroup(ctx, jar, resourcesPrefix, sources); err != nil {
		return err
	}
	r.exploded.Begin(dir).Add(assembly.CompressedGroupEntry{ArchiveName: name, Prefix: resourcesPrefix, SourcePaths: sources})
	r.created = append(r.created, jar)
	r.result.Attached = append(r.result.Attached, Attached{Type: TypeJar, Classifier: ClassifierResources, Path: jar})
	return nil
}

// pluginDependencies places explicitly requested agent plugins into agent/
// and tools into bundled/.
func (r *serverRun) pluginDependencies(ctx context.Context) error {
	var agents, tools []model.Coordinate
	for _, c := range r.cfg.PluginDependencies {
		switch c.Classifier {
		case model.ClassifierAgentPlugin:
			agents = append(agents, c)
		case model.ClassifierTool:
			tools = append(tools, c)
		default:
			ctxlog.FromContext(ctx).Warn("Plugin dependency has no known classifier, skipped.", "coordinate", c.String())
		}
	}
	for _, group := range []struct {
		dir    string
		coords []model.Coordinate
	}{{"agent", agents}, {"bundled", tools}} {
		if len(group.coords) == 0 {
			continue
		}
		set := r.exploded.Begin(filepath.Join(r.root, group.dir))
		dests, err := r.env.placePlugins(ctx, set, group.coords, r.cfg.FailOnMissing())
		r.created = append(r.created, dests...)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *serverRun) kotlinDSL(ctx context.Context) error {
	if !fsutil.IsDir(r.cfg.KotlinDSLPath) {
		if r.cfg.RequireKotlinDSL {
			return &asmerr.Error{
				Kind:   asmerr.IOFailure,
				Op:     "copy kotlin dsl",
				Source: r.cfg.KotlinDSLPath,
				Err:    errors.New("kotlin dsl is required but its sources were not found"),
			}
		}
		return nil
	}
	r.copyDir(ctx, "kotlin-dsl", r.cfg.KotlinDSLPath, syncdir.CopyFlat)
	return nil
}

func (r *serverRun) uiSchemas(ctx context.Context) error {
	if fsutil.IsDir(r.cfg.UISchemasPath) {
		r.copyDir(ctx, "ui-schemas", r.cfg.UISchemasPath, syncdir.CopyTree)
	}
	return nil
}

// copyDir copies src below dir with copyFn. Failures are logged, the files
// copied so far are kept.
func (r *serverRun) copyDir(ctx context.Context, dir, src string, copyFn func(src, dst string) ([]string, error)) {
	dest := filepath.Join(r.root, dir)
	r.exploded.Begin(dest).Add(assembly.DirCopyEntry{SourcePath: src})
	written, err := copyFn(src, dest)
	r.created = append(r.created, written...)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to copy directory.", "source", src, "dest", dest, "error", err)
	}
}

func (r *serverRun) common(ctx context.Context) error {
	if !r.cfg.NeedToBuildCommon() {
		return nil
	}
	sel, err := selector.Select(ctx, r.env.Graph, r.cfg.CommonSpec, r.cfg.CommonExclusions)
	if err != nil {
		return err
	}
	return r.place(ctx, "common", sel.Nodes)
}

// extras copies additional files and directories. A missing source is
// logged and skipped.
func (r *serverRun) extras(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	for _, extra := range r.cfg.Extras {
		info, err := os.Stat(extra.Source)
		if err != nil {
			logger.Warn("Extra source not found, skipped.", "source", extra.Source, "error", err)
			continue
		}
		dest := r.root
		if extra.DestDir != "" {
			dest = filepath.Join(r.root, extra.DestDir)
		}

		switch {
		case info.IsDir():
			r.copyDir(ctx, relativeTo(r.root, dest), extra.Source, syncdir.CopyTree)
		case info.Mode().IsRegular():
			name := firstNonEmpty(extra.DestName, filepath.Base(extra.Source))
			target := filepath.Join(dest, name)
			if err := copyFile(extra.Source, target); err != nil {
				return err
			}
			r.exploded.Begin(dest).Add(assembly.FileEntry{DestinationName: extra.DestName, SourcePath: extra.Source})
			r.created = append(r.created, target)
		default:
			logger.Warn("Extra source is neither a file nor a directory, skipped.", "source", extra.Source)
		}
	}
	return nil
}

// agentArchives copies the archives of the agent workflow into agent/.
func (r *serverRun) agentArchives(ctx context.Context) error {
	if r.agent == nil {
		return nil
	}
	dir := filepath.Join(r.root, "agent")
	for _, a := range r.agent.Attached {
		target := filepath.Join(dir, filepath.Base(a.Path))
		if err := copyFile(a.Path, target); err != nil {
			return fmt.Errorf("package agent plugin: %w", err)
		}
		r.created = append(r.created, target)
		if a.Context != nil {
			r.exploded.Begin(dir).Add(assembly.ArtifactRefEntry{AssemblyName: a.Context.Name})
		}
		ctxlog.FromContext(ctx).Debug("Agent plugin packaged.", "path", target)
	}
	return nil
}

func relativeTo(base, p string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return p
	}
	return rel
}
