package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/plugasm/internal/archive"
	"github.com/specialistvlad/plugasm/internal/assembly"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/depgraph"
	"github.com/specialistvlad/plugasm/internal/descriptor"
	"github.com/specialistvlad/plugasm/internal/ideartifact"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/specialistvlad/plugasm/internal/publish"
	"github.com/specialistvlad/plugasm/internal/resolver"
	"github.com/specialistvlad/plugasm/internal/workflow"
)

// Summary is what a Run produced.
type Summary struct {
	Agent     *workflow.Result
	Server    *workflow.Result
	IDEFiles  []string
	Published []string
}

// Attached returns the archives of both workflows, agent first.
func (s *Summary) Attached() []workflow.Attached {
	var out []workflow.Attached
	for _, r := range []*workflow.Result{s.Agent, s.Server} {
		if r != nil {
			out = append(out, r.Attached...)
		}
	}
	return out
}

// Run assembles the agent and server plugins.
func (a *App) Run(ctx context.Context) (*Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	m := a.model

	graph, err := depgraph.Load(ctx, a.cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dependency graph: %w", err)
	}
	tokens := depgraph.TokensByName(a.cfg.Tokens)
	if a.cfg.PrintTree {
		if err := depgraph.Print(a.outW, graph, tokens); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("Dependency tree.", "tree", depgraph.Sprint(graph, tokens))

	res, err := a.newResolver()
	if err != nil {
		return nil, err
	}
	renderer, err := descriptor.NewTemplateRenderer()
	if err != nil {
		return nil, err
	}
	env := &workflow.Env{
		Project:  m.Project,
		Graph:    graph,
		Resolver: res,
		Archiver: archive.NewZipWriter(),
		Renderer: renderer,
	}

	summary := &Summary{}
	summary.Agent, err = workflow.NewAgentWorkflow(env, m.Agent).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("agent plugin assembly failed: %w", err)
	}
	summary.Server, err = workflow.NewServerWorkflow(env, m.Server, m.Agent.Spec, summary.Agent).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("server plugin assembly failed: %w", err)
	}

	if !m.IDE.Disabled {
		var contexts []*assembly.Context
		contexts = append(contexts, summary.Agent.Contexts...)
		contexts = append(contexts, summary.Server.Contexts...)
		summary.IDEFiles, err = ideartifact.WriteAll(ctx, contexts, m.IDE.ProjectRoot)
		if err != nil {
			return nil, err
		}
	}

	attached := summary.Attached()
	for _, at := range attached {
		a.logger.Info("Plugin archive attached.", "type", at.Type, "classifier", at.Classifier, "path", at.Path)
	}

	if m.Publish != nil && len(attached) > 0 {
		p, err := a.newPublisher(*m.Publish, m.Project.Coordinate)
		if err != nil {
			return nil, fmt.Errorf("failed to configure publishing: %w", err)
		}
		artifacts := make([]publish.Artifact, len(attached))
		for i, at := range attached {
			artifacts[i] = publish.Artifact{Path: at.Path, Type: at.Type, Classifier: at.Classifier}
		}
		summary.Published, err = p.Publish(ctx, artifacts)
		if err != nil {
			return nil, fmt.Errorf("publishing failed: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return summary, nil
}

// newResolver builds the cached local repository resolver. The project's
// own artifact is registered as a session module unless configured.
func (a *App) newResolver() (*resolver.Cached, error) {
	m := a.model
	project := m.Project.Coordinate
	modules := []resolver.Module{{
		Coordinate: project,
		Path:       filepath.Join(filepath.Dir(m.Project.BuildOutput), projectFileName(project)),
	}}
	for _, mod := range m.Resolver.Modules {
		modules = append(modules, resolver.Module{Coordinate: mod.Coordinate, Path: mod.Path})
	}
	return resolver.NewCached(resolver.NewLocalRepository(m.Resolver.Repository, modules...), m.Resolver.CacheSize)
}

func projectFileName(c model.Coordinate) string {
	c.Classifier = ""
	return c.FileName()
}
