package config

import (
	"strings"

	"github.com/specialistvlad/plugasm/internal/model"
)

// Model is the unified, format-agnostic representation of the whole
// assembler configuration.
type Model struct {
	Project  Project
	Resolver Resolver
	Agent    Agent
	Server   Server
	IDE      IDE
	// Publish is nil when archives are not uploaded.
	Publish *Publish
}

// Project describes the project the plugin is assembled from.
type Project struct {
	// Coordinate is the project's own artifact. Its Type is the packaging.
	Coordinate  model.Coordinate
	DisplayName string
	Description string
	Vendor      string
	VendorURL   string

	// BaseDir anchors every relative path of the configuration.
	BaseDir     string
	BuildOutput string
	WorkDir     string

	// Attached lists the secondary artifacts the build produces next to the
	// main one, such as the classes jar of a war project.
	Attached []model.Coordinate
	// Webapp lists web resource directories. buildServerResources are
	// discovered below them when not configured.
	Webapp []string
}

// Resolver configures the local artifact repository.
type Resolver struct {
	Repository string
	CacheSize  int
	// Modules are built in the same session; they are always re-copied.
	Modules []Module
}

// Module maps a session module to its built file.
type Module struct {
	Coordinate model.Coordinate
	Path       string
}

// Descriptor configures the runtime descriptor of one payload.
type Descriptor struct {
	Path          string
	DoNotGenerate bool
	FailOnMissing bool
	PluginVersion string

	AllowRuntimeReload        *bool
	NodeResponsibilitiesAware *bool
	UseSeparateClassloader    *bool

	PluginDependencies []string
	ToolDependencies   []string
	Parameters         map[string]string
}

// Agent is the agent payload request.
type Agent struct {
	Spec       string
	PluginName string
	Exclusions []string
	// Tool switches the descriptor to tool deployment.
	Tool                      bool
	FailOnMissingDependencies *bool
	IgnoreExtraFilesIn        []string
	Descriptor                Descriptor
}

// NeedToBuild reports whether an agent payload is requested.
func (a Agent) NeedToBuild() bool {
	return strings.TrimSpace(a.Spec) != ""
}

// FailOnMissing reports whether a missing dependency aborts the assembly.
// It defaults to true.
func (a Agent) FailOnMissing() bool {
	return a.FailOnMissingDependencies == nil || *a.FailOnMissingDependencies
}

// Extra is an additional file or directory copied into the server payload.
type Extra struct {
	Source   string
	DestDir  string
	DestName string
}

// Server is the server payload request.
type Server struct {
	Spec                 string
	PluginName           string
	Exclusions           []string
	BuildServerResources []string
	CommonSpec           string
	CommonExclusions     []string
	KotlinDSLPath        string
	RequireKotlinDSL     bool
	UISchemasPath        string
	IgnoreExtraFilesIn   []string
	// PluginDependencies are explicit dependencies packaged next to the
	// selection: classifier teamcity-agent-plugin goes to agent/ and
	// classifier tool goes to bundled/.
	PluginDependencies        []model.Coordinate
	FailOnMissingDependencies *bool
	ExcludeAgent              *bool
	Extras                    []Extra
	Descriptor                Descriptor
}

// NeedToBuild reports whether a server payload is requested.
func (s Server) NeedToBuild() bool {
	return strings.TrimSpace(s.Spec) != ""
}

// NeedToBuildCommon reports whether a common/ directory is requested.
func (s Server) NeedToBuildCommon() bool {
	return strings.TrimSpace(s.CommonSpec) != ""
}

// FailOnMissing reports whether a missing dependency aborts the assembly.
// It defaults to true.
func (s Server) FailOnMissing() bool {
	return s.FailOnMissingDependencies == nil || *s.FailOnMissingDependencies
}

// ExcludesAgent reports whether the agent selection is kept out of the
// server payload. It defaults to true.
func (s Server) ExcludesAgent() bool {
	return s.ExcludeAgent == nil || *s.ExcludeAgent
}

// IDE configures IDE artifact descriptor output.
type IDE struct {
	Disabled    bool
	ProjectRoot string
}

// Publish configures the S3 compatible upload of attached archives.
type Publish struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}
