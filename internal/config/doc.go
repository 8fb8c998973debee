// Package config defines the format-agnostic configuration model of the
// assembler along with the Loader interface that concrete formats
// implement.
//
// The `config.Model` is the single source of truth for the `workflow`,
// `resolver` and `publish` packages. Concrete implementations of the
// Loader, such as for HCL, are provided in separate packages.
package config
