// Package descriptor renders and locates the runtime plugin descriptor,
// teamcity-plugin.xml, that ships inside every plugin package.
package descriptor

import (
	"bytes"
	"context"
	"embed"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/fsutil"
)

// Template names.
const (
	ServerTemplate = "teamcity-server-plugin.tmpl"
	AgentTemplate  = "teamcity-agent-plugin.tmpl"
)

//go:embed templates/*.tmpl
var bundled embed.FS

// Project describes the project the plugin is built from.
type Project struct {
	GroupID     string
	ArtifactID  string
	Version     string
	Description string
	Vendor      string
	VendorURL   string
}

// Data is the value templates are executed with.
type Data struct {
	Project     Project
	PluginName  string
	DisplayName string
	Version     string

	// Tool switches the agent descriptor to tool deployment.
	Tool bool
	// AgentPluginName is written as a marker into the agent descriptor when
	// the plugin is named differently from its artifact.
	AgentPluginName string

	AllowRuntimeReload        *bool
	NodeResponsibilitiesAware *bool
	UseSeparateClassloader    *bool

	PluginDependencies []string
	ToolDependencies   []string
	Parameters         map[string]string
}

// HasDeploymentOptions reports whether any deployment attribute is set.
func (d Data) HasDeploymentOptions() bool {
	return d.AllowRuntimeReload != nil || d.NodeResponsibilitiesAware != nil || d.UseSeparateClassloader != nil
}

// Renderer renders a named descriptor template.
type Renderer interface {
	Render(w io.Writer, name string, data Data) error
}

// TemplateRenderer renders the templates bundled with the binary.
type TemplateRenderer struct {
	tmpl *template.Template
}

var _ Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer parses the bundled templates.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("descriptor").Funcs(template.FuncMap{
		"xml":   escape,
		"deref": func(b *bool) string { return strconv.FormatBool(*b) },
	}).ParseFS(bundled, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse descriptor templates: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

// Render executes the template called name.
func (r *TemplateRenderer) Render(w io.Writer, name string, data Data) error {
	if r.tmpl.Lookup(name) == nil {
		return fmt.Errorf("unknown descriptor template %q", name)
	}
	return r.tmpl.ExecuteTemplate(w, name, data)
}

func escape(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Options controls Prepare.
type Options struct {
	// Path is the descriptor supplied by the project. It is used as is when
	// it exists.
	Path string
	// GeneratedPath is where a descriptor is generated when Path does not
	// exist.
	GeneratedPath string
	Template      string
	Data          Data
	DoNotGenerate bool
	FailOnMissing bool
	Renderer      Renderer
}

// Prepare returns the path of the descriptor to package. The supplied
// descriptor wins; otherwise one is generated unless DoNotGenerate is set.
// Generation failures are logged. When no descriptor exists in the end,
// Prepare fails with DescriptorMissing if FailOnMissing is set and returns
// the supplied path otherwise.
func Prepare(ctx context.Context, opts Options) (string, error) {
	logger := ctxlog.FromContext(ctx)

	target := opts.Path
	if !fsutil.IsFile(target) && !opts.DoNotGenerate && opts.GeneratedPath != "" {
		if err := generate(opts); err != nil {
			logger.Warn("Error while generating descriptor.", "path", opts.GeneratedPath, "error", err)
		} else {
			logger.Debug("Descriptor generated.", "path", opts.GeneratedPath)
			target = opts.GeneratedPath
		}
	}

	if fsutil.IsFile(target) {
		return target, nil
	}
	if opts.FailOnMissing {
		return "", &asmerr.Error{
			Kind:   asmerr.DescriptorMissing,
			Op:     "prepare descriptor",
			Source: opts.Path,
			Err:    fmt.Errorf("descriptor path must point to a plugin descriptor"),
		}
	}
	logger.Warn("Plugin descriptor not found.", "path", opts.Path)
	return opts.Path, nil
}

func generate(opts Options) error {
	r := opts.Renderer
	if r == nil {
		tr, err := NewTemplateRenderer()
		if err != nil {
			return err
		}
		r = tr
	}

	var buf bytes.Buffer
	if err := r.Render(&buf, opts.Template, opts.Data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.GeneratedPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(opts.GeneratedPath, buf.Bytes(), 0o644)
}
