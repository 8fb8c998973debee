// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Coordinate, the tuple that names a buildable or
// fetchable component in the dependency graph.
//
// Identity deliberately leaves the version out: two coordinates with the same
// group, name, type and classifier describe the same component, and the
// version is the input the upstream resolver settles on.
package model

import (
	"fmt"
	"strings"
)

// DefaultType is the packaging type assumed when none is given.
const DefaultType = "jar"

// Coordinate identifies a component of the dependency graph.
type Coordinate struct {
	Group      string `yaml:"group"`
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Classifier string `yaml:"classifier"`
	Type       string `yaml:"type"`
}

// Key returns the identity of the coordinate: group, name, type and
// classifier. The version is not part of it.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Name + ":" + c.typeOrDefault() + ":" + c.Classifier
}

// Same reports whether both coordinates have the same identity.
func (c Coordinate) Same(other Coordinate) bool {
	return c.Key() == other.Key()
}

// String renders group:name:type[:classifier]:version.
func (c Coordinate) String() string {
	parts := []string{c.Group, c.Name, c.typeOrDefault()}
	if c.Classifier != "" {
		parts = append(parts, c.Classifier)
	}
	parts = append(parts, c.Version)
	return strings.Join(parts, ":")
}

// WithVersion returns a copy of the coordinate at another version.
func (c Coordinate) WithVersion(version string) Coordinate {
	c.Version = version
	return c
}

// Extension maps the packaging type to the extension of its file.
func (c Coordinate) Extension() string {
	switch t := c.typeOrDefault(); t {
	case "test-jar", "maven-plugin", "ejb", "bundle", "java-source", "javadoc":
		return "jar"
	default:
		return t
	}
}

// FileName returns the conventional repository file name:
// name-version[-classifier].ext.
func (c Coordinate) FileName() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if c.Version != "" {
		b.WriteString("-")
		b.WriteString(c.Version)
	}
	if c.Classifier != "" {
		b.WriteString("-")
		b.WriteString(c.Classifier)
	}
	b.WriteString(".")
	b.WriteString(c.Extension())
	return b.String()
}

func (c Coordinate) typeOrDefault() string {
	if c.Type == "" {
		return DefaultType
	}
	return c.Type
}

// ParseCoordinate reads the colon separated forms
//
//	group:name
//	group:name:version
//	group:name:type:version
//	group:name:type:classifier:version
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var c Coordinate
	switch len(parts) {
	case 2:
		c = Coordinate{Group: parts[0], Name: parts[1]}
	case 3:
		c = Coordinate{Group: parts[0], Name: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{Group: parts[0], Name: parts[1], Type: parts[2], Version: parts[3]}
	case 5:
		c = Coordinate{Group: parts[0], Name: parts[1], Type: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: expected 2 to 5 colon separated parts, got %d", s, len(parts))
	}
	if c.Group == "" || c.Name == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: group and name are required", s)
	}
	if c.Type == "" {
		c.Type = DefaultType
	}
	return c, nil
}
