// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the in-memory representation of the resolved
// dependency graph the assembler works on.
//
// # Core Concepts
//
//   - Coordinate: the (group, name, version, classifier, type) tuple naming a
//     component. Identity excludes the version.
//
//   - GraphNode: a node of the graph. It owns its children, points back to its
//     parent and optionally carries ConflictInfo when the producer resolved a
//     version conflict against it.
//
// The graph is produced outside of this module (see package depgraph for the
// file format) and is treated as read-only by every consumer.
package model
