package hcl

import "github.com/hashicorp/hcl/v2"

// projectRoot decodes only the project block. It is the first pass of the
// loader; its result feeds the evaluation context of the second pass.
type projectRoot struct {
	Project *projectBlock `hcl:"project,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Project  *projectBlock  `hcl:"project,block"`
	Resolver *resolverBlock `hcl:"resolver,block"`
	Agent    *agentBlock    `hcl:"agent,block"`
	Server   *serverBlock   `hcl:"server,block"`
	IDE      *ideBlock      `hcl:"ide,block"`
	Publish  *publishBlock  `hcl:"publish,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

type projectBlock struct {
	GroupID     string   `hcl:"group_id"`
	ArtifactID  string   `hcl:"artifact_id"`
	Version     string   `hcl:"version"`
	Packaging   string   `hcl:"packaging,optional"`
	DisplayName string   `hcl:"display_name,optional"`
	Description string   `hcl:"description,optional"`
	Vendor      string   `hcl:"vendor,optional"`
	VendorURL   string   `hcl:"vendor_url,optional"`
	BaseDir     string   `hcl:"base_dir,optional"`
	BuildOutput string   `hcl:"build_output,optional"`
	WorkDir     string   `hcl:"work_dir,optional"`
	Attached    []string `hcl:"attached,optional"`
	Webapp      []string `hcl:"webapp,optional"`
}

type resolverBlock struct {
	Repository string         `hcl:"repository,optional"`
	CacheSize  int            `hcl:"cache_size,optional"`
	Modules    []*moduleBlock `hcl:"module,block"`
}

type moduleBlock struct {
	Coordinate string `hcl:"coordinate,label"`
	Path       string `hcl:"path"`
}

type descriptorBlock struct {
	Path                      string            `hcl:"path,optional"`
	DoNotGenerate             bool              `hcl:"do_not_generate,optional"`
	FailOnMissing             bool              `hcl:"fail_on_missing,optional"`
	PluginVersion             string            `hcl:"plugin_version,optional"`
	AllowRuntimeReload        *bool             `hcl:"allow_runtime_reload,optional"`
	NodeResponsibilitiesAware *bool             `hcl:"node_responsibilities_aware,optional"`
	UseSeparateClassloader    *bool             `hcl:"use_separate_classloader,optional"`
	PluginDependencies        []string          `hcl:"plugin_dependencies,optional"`
	ToolDependencies          []string          `hcl:"tool_dependencies,optional"`
	Parameters                map[string]string `hcl:"parameters,optional"`
}

type agentBlock struct {
	Spec                      string           `hcl:"spec"`
	PluginName                string           `hcl:"plugin_name,optional"`
	Exclusions                []string         `hcl:"exclusions,optional"`
	Tool                      bool             `hcl:"tool,optional"`
	FailOnMissingDependencies *bool            `hcl:"fail_on_missing_dependencies,optional"`
	IgnoreExtraFilesIn        []string         `hcl:"ignore_extra_files_in,optional"`
	Descriptor                *descriptorBlock `hcl:"descriptor,block"`
}

type serverBlock struct {
	Spec                      string           `hcl:"spec"`
	PluginName                string           `hcl:"plugin_name,optional"`
	Exclusions                []string         `hcl:"exclusions,optional"`
	BuildServerResources      []string         `hcl:"build_server_resources,optional"`
	CommonSpec                string           `hcl:"common_spec,optional"`
	CommonExclusions          []string         `hcl:"common_exclusions,optional"`
	KotlinDSLPath             string           `hcl:"kotlin_dsl_path,optional"`
	RequireKotlinDSL          bool             `hcl:"require_kotlin_dsl,optional"`
	UISchemasPath             string           `hcl:"ui_schemas_path,optional"`
	IgnoreExtraFilesIn        []string         `hcl:"ignore_extra_files_in,optional"`
	PluginDependencies        []string         `hcl:"plugin_dependencies,optional"`
	FailOnMissingDependencies *bool            `hcl:"fail_on_missing_dependencies,optional"`
	ExcludeAgent              *bool            `hcl:"exclude_agent,optional"`
	Extras                    []*extraBlock    `hcl:"extra,block"`
	Descriptor                *descriptorBlock `hcl:"descriptor,block"`
}

type extraBlock struct {
	Source   string `hcl:"source"`
	DestDir  string `hcl:"dest_dir,optional"`
	DestName string `hcl:"dest_name,optional"`
}

type ideBlock struct {
	Enabled     *bool  `hcl:"enabled,optional"`
	ProjectRoot string `hcl:"project_root,optional"`
}

type publishBlock struct {
	Endpoint  string `hcl:"endpoint,optional"`
	Region    string `hcl:"region,optional"`
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`
	Bucket    string `hcl:"bucket,optional"`
	Prefix    string `hcl:"prefix,optional"`
	UseSSL    bool   `hcl:"use_ssl,optional"`
}
