package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths. The project block must be
// defined exactly once; every other block is merged, later files winning.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %s", strings.Join(paths, ", "))
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	files := make(map[string]*hcl.File, len(hclFiles))
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		files[file] = hclFile
	}

	env := envContext()

	// First pass: the project block, evaluated against the environment only.
	var project *projectBlock
	var projectFile string
	for _, file := range hclFiles {
		var root projectRoot
		if diags := gohcl.DecodeBody(files[file].Body, env, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode project in HCL file %s: %w", file, diags)
		}
		if root.Project == nil {
			continue
		}
		if project != nil {
			return nil, fmt.Errorf("project block defined in both %s and %s", projectFile, file)
		}
		project, projectFile = root.Project, file
	}
	if project == nil {
		return nil, fmt.Errorf("no project block found in %s", strings.Join(hclFiles, ", "))
	}

	model := &config.Model{}
	if err := l.translateProject(project, filepath.Dir(projectFile), &model.Project); err != nil {
		return nil, fmt.Errorf("in %s: %w", projectFile, err)
	}

	// Second pass: everything else, with project.* available.
	evalCtx := env.NewChild()
	evalCtx.Variables = map[string]cty.Value{"project": projectValue(model.Project)}
	for _, file := range hclFiles {
		var root fileRoot
		if diags := gohcl.DecodeBody(files[file].Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := l.merge(ctx, &root, model); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}
	}

	logger.Debug("HCL loading complete.",
		"project", model.Project.Coordinate.String(),
		"agent", model.Agent.NeedToBuild(),
		"server", model.Server.NeedToBuild(),
		"publish", model.Publish != nil)
	return model, nil
}

func (l *Loader) merge(ctx context.Context, root *fileRoot, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	if root.Resolver != nil {
		r, err := translateResolver(root.Resolver)
		if err != nil {
			return err
		}
		model.Resolver = r
	}
	if root.Agent != nil {
		logger.Debug("Translating agent block.", "spec", root.Agent.Spec)
		model.Agent = translateAgent(root.Agent)
	}
	if root.Server != nil {
		logger.Debug("Translating server block.", "spec", root.Server.Spec)
		s, err := translateServer(root.Server)
		if err != nil {
			return err
		}
		model.Server = s
	}
	if root.IDE != nil {
		model.IDE = config.IDE{
			Disabled:    root.IDE.Enabled != nil && !*root.IDE.Enabled,
			ProjectRoot: root.IDE.ProjectRoot,
		}
	}
	if root.Publish != nil {
		p := config.Publish(*root.Publish)
		model.Publish = &p
	}
	return nil
}

// envContext exposes the process environment as env.NAME.
func envContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func projectValue(p config.Project) cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"group_id":    cty.StringVal(p.Coordinate.Group),
		"artifact_id": cty.StringVal(p.Coordinate.Name),
		"version":     cty.StringVal(p.Coordinate.Version),
		"base_dir":    cty.StringVal(p.BaseDir),
	})
}
