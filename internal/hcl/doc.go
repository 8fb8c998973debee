// Package hcl provides the HCL implementation of the config.Loader
// interface. It is responsible for file discovery, HCL parsing and the
// translation of the HCL schema into the format-agnostic config.Model.
//
// Attribute expressions can reference the environment as env.NAME, and
// every block except project can reference project.group_id,
// project.artifact_id, project.version and project.base_dir.
package hcl
