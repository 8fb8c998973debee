package workflow

import (
	"context"
	"path/filepath"

	"github.com/specialistvlad/plugasm/internal/assembly"
	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/descriptor"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/specialistvlad/plugasm/internal/selector"
	"github.com/specialistvlad/plugasm/internal/syncdir"
)

// AgentWorkflow assembles the agent plugin payload.
type AgentWorkflow struct {
	env *Env
	cfg config.Agent
}

// NewAgentWorkflow creates an AgentWorkflow.
func NewAgentWorkflow(env *Env, cfg config.Agent) *AgentWorkflow {
	return &AgentWorkflow{env: env, cfg: cfg}
}

// Run assembles agent-unpacked/<plugin>, and packs it into
// agent/<plugin>.zip when the selection is not empty. It returns an empty
// Result when no agent spec is configured.
func (w *AgentWorkflow) Run(ctx context.Context) (*Result, error) {
	if !w.cfg.NeedToBuild() {
		ctxlog.FromContext(ctx).Debug("No agent spec configured, skipping agent plugin.")
		return &Result{}, nil
	}

	plugin := w.cfg.PluginName
	unpacked := w.env.workDir("agent-unpacked")
	pluginDir := filepath.Join(unpacked, plugin)
	exploded := assembly.New(assembly.AssemblyName("AGENT", plugin, "EXPLODED"), pluginDir)

	ctx = ctxlog.With(ctx, "assembly", exploded.Name)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Assembling agent plugin.", "dir", pluginDir)

	sel, err := selector.Select(ctx, w.env.Graph, w.cfg.Spec, w.cfg.Exclusions)
	if err != nil {
		return nil, err
	}
	lib := exploded.Begin(filepath.Join(pluginDir, "lib"))
	if _, err := w.env.placeNodes(ctx, lib, sel.Nodes, w.cfg.FailOnMissing()); err != nil {
		return nil, err
	}

	result := &Result{}
	if len(sel.Nodes) == 0 {
		logger.Warn("Agent selection is empty, no agent archive is built.", "spec", w.cfg.Spec)
		result.Contexts = []*assembly.Context{exploded.Rebase(pluginDir)}
		return result, nil
	}

	data := w.env.descriptorData(plugin, w.cfg.Descriptor)
	data.Tool = w.cfg.Tool
	if plugin != w.env.Project.Coordinate.Name {
		data.AgentPluginName = plugin
	}
	path, err := w.env.prepareDescriptor(ctx, pluginDir,
		w.env.workDir("teamcity-agent-plugin-generated.xml"), descriptor.AgentTemplate, data, w.cfg.Descriptor)
	if err != nil {
		return nil, err
	}
	result.DescriptorPath = path
	exploded.Begin(pluginDir).Add(assembly.FileEntry{DestinationName: syncdir.KeptFileName, SourcePath: path})

	agentDir := w.env.workDir("agent")
	zipPath := filepath.Join(agentDir, plugin+".zip")
	if err := w.env.Archiver.WriteZip(ctx, unpacked, zipPath); err != nil {
		return nil, err
	}
	logger.Info("Agent plugin archive created.", "path", zipPath)

	zipped := assembly.New(assembly.AssemblyName("AGENT", plugin, ""), agentDir)
	zipped.Begin(agentDir).Add(assembly.ArtifactRefEntry{DestinationName: plugin + ".zip", AssemblyName: exploded.Name})

	idea := assembly.New(assembly.AssemblyName("AGENT", plugin, "4IDEA"), unpacked)
	idea.Begin(pluginDir).Add(assembly.ArtifactRefEntry{AssemblyName: exploded.Name})

	zipCtx := zipped.Rebase(agentDir)
	result.Contexts = []*assembly.Context{exploded.Rebase(pluginDir), idea.Rebase(unpacked), zipCtx}
	result.Attached = []Attached{{
		Type:       TypeZip,
		Classifier: model.ClassifierAgentPlugin,
		Path:       zipPath,
		Context:    zipCtx,
	}}
	return result, nil
}
