package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/plugasm/internal/fsutil"
	"github.com/specialistvlad/plugasm/internal/model"
)

// Default values.
const (
	DefaultCacheSize  = 256
	DefaultRegion     = "us-east-1"
	teamcityGroupID   = "org.jetbrains.teamcity"
	buildOutputSubdir = "target/classes"
	workSubdir        = "target/teamcity"
)

// Environment variables publish settings fall back to.
const (
	EnvS3Endpoint  = "PLUGASM_S3_ENDPOINT"
	EnvS3Region    = "PLUGASM_S3_REGION"
	EnvS3AccessKey = "PLUGASM_S3_ACCESS_KEY"
	EnvS3SecretKey = "PLUGASM_S3_SECRET_KEY"
	EnvS3Bucket    = "PLUGASM_S3_BUCKET"
)

// ApplyDefaults fills every unset field with its default. Relative paths
// are resolved against Project.BaseDir.
func (m *Model) ApplyDefaults() {
	p := &m.Project
	if p.BaseDir == "" {
		p.BaseDir = "."
	}
	if abs, err := filepath.Abs(p.BaseDir); err == nil {
		p.BaseDir = abs
	}
	if p.Coordinate.Type == "" {
		p.Coordinate.Type = model.DefaultType
	}
	p.BuildOutput = m.path(p.BuildOutput, buildOutputSubdir)
	p.WorkDir = m.path(p.WorkDir, workSubdir)
	if len(p.Webapp) == 0 && p.Coordinate.Type == "war" {
		p.Webapp = []string{"src/main/webapp"}
	}
	for i, w := range p.Webapp {
		p.Webapp[i] = m.path(w, "")
	}
	if p.DisplayName == "" {
		p.DisplayName = p.Coordinate.Name
	}

	r := &m.Resolver
	if r.Repository == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.Repository = filepath.Join(home, ".m2", "repository")
		}
	} else {
		r.Repository = m.path(r.Repository, "")
	}
	if r.CacheSize <= 0 {
		r.CacheSize = DefaultCacheSize
	}
	for i := range r.Modules {
		r.Modules[i].Path = m.path(r.Modules[i].Path, "")
	}

	a := &m.Agent
	if a.PluginName == "" {
		a.PluginName = p.Coordinate.Name
	}
	if a.Exclusions == nil {
		a.Exclusions = []string{teamcityGroupID, "::zip"}
	}
	m.descriptorDefaults(&a.Descriptor, "teamcity-agent-plugin.xml")

	s := &m.Server
	if s.PluginName == "" {
		s.PluginName = p.Coordinate.Name
	}
	if s.Exclusions == nil {
		s.Exclusions = []string{teamcityGroupID}
	}
	if s.CommonExclusions == nil {
		s.CommonExclusions = []string{teamcityGroupID}
	}
	s.KotlinDSLPath = m.path(s.KotlinDSLPath, filepath.Join(p.BuildOutput, "kotlin-dsl"))
	s.UISchemasPath = m.path(s.UISchemasPath, filepath.Join(p.BuildOutput, "ui-schemas"))
	for i, src := range s.BuildServerResources {
		s.BuildServerResources[i] = m.path(src, "")
	}
	for i := range s.Extras {
		s.Extras[i].Source = m.path(s.Extras[i].Source, "")
	}
	m.descriptorDefaults(&s.Descriptor, "teamcity-plugin.xml")

	m.IDE.ProjectRoot = m.path(m.IDE.ProjectRoot, p.BaseDir)

	if pub := m.Publish; pub != nil {
		pub.Endpoint = firstNonEmpty(pub.Endpoint, os.Getenv(EnvS3Endpoint))
		pub.Region = firstNonEmpty(pub.Region, os.Getenv(EnvS3Region), DefaultRegion)
		pub.AccessKey = firstNonEmpty(pub.AccessKey, os.Getenv(EnvS3AccessKey))
		pub.SecretKey = firstNonEmpty(pub.SecretKey, os.Getenv(EnvS3SecretKey))
		pub.Bucket = firstNonEmpty(pub.Bucket, os.Getenv(EnvS3Bucket))
	}
}

func (m *Model) descriptorDefaults(d *Descriptor, fileName string) {
	d.Path = m.path(d.Path, filepath.Join(m.Project.BuildOutput, "META-INF", fileName))
	if d.PluginVersion == "" {
		d.PluginVersion = m.Project.Coordinate.Version
	}
}

// path resolves p against the base directory, or returns def when p is
// empty.
func (m *Model) path(p, def string) string {
	if strings.TrimSpace(p) == "" {
		p = def
	}
	if p == "" {
		return ""
	}
	return fsutil.AbsOr(m.Project.BaseDir, p)
}

// Validate reports every missing required field.
func (m *Model) Validate() error {
	var errs []error
	c := m.Project.Coordinate
	if c.Group == "" {
		errs = append(errs, errors.New("project: group_id is required"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("project: artifact_id is required"))
	}
	if c.Version == "" {
		errs = append(errs, errors.New("project: version is required"))
	}
	if !m.Agent.NeedToBuild() && !m.Server.NeedToBuild() {
		errs = append(errs, errors.New("nothing to assemble: neither agent nor server spec is set"))
	}
	for i, e := range m.Server.Extras {
		if strings.TrimSpace(e.Source) == "" {
			errs = append(errs, fmt.Errorf("server: extra #%d has no source", i+1))
		}
	}
	for _, mod := range m.Resolver.Modules {
		if mod.Path == "" {
			errs = append(errs, fmt.Errorf("resolver: module %s has no path", mod.Coordinate))
		}
	}
	if pub := m.Publish; pub != nil {
		if pub.Endpoint == "" {
			errs = append(errs, errors.New("publish: endpoint is required"))
		}
		if pub.Bucket == "" {
			errs = append(errs, errors.New("publish: bucket is required"))
		}
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
