// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the GraphNode, a node of the resolved dependency graph
// handed over by the host build.
//
// The graph is built once by the producer and is read-only afterwards. The
// selection code never mutates it; it only decides which nodes take part in
// an assembly.
package model

import "errors"

// Classifiers with a special meaning for plugin packaging.
const (
	ClassifierServerPlugin = "teamcity-plugin"
	ClassifierAgentPlugin  = "teamcity-agent-plugin"
	ClassifierTool         = "tool"
)

// ConflictInfo is attached by the graph producer when the node lost a version
// conflict. WinningVersion is the version the overall resolution settled on.
type ConflictInfo struct {
	WinningVersion string
}

// GraphNode is a node of the dependency graph. It owns its children and keeps
// a non-owning reference to its parent.
type GraphNode struct {
	Coordinate Coordinate
	Scope      string
	Conflict   *ConflictInfo
	// Local marks a module built in the same session as the project.
	Local    bool
	Children []*GraphNode

	parent *GraphNode
}

// NewGraphNode creates a detached node.
func NewGraphNode(c Coordinate) *GraphNode {
	return &GraphNode{Coordinate: c}
}

// AddChild appends child and sets its parent reference. It returns the
// receiver so that small graphs can be built inline.
func (n *GraphNode) AddChild(children ...*GraphNode) *GraphNode {
	for _, child := range children {
		child.parent = n
		n.Children = append(n.Children, child)
	}
	return n
}

// Parent returns the parent node, or nil for the root.
func (n *GraphNode) Parent() *GraphNode {
	return n.parent
}

// Depth returns the number of ancestors of the node.
func (n *GraphNode) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// WinningVersion returns the version the node must be replaced with, or ""
// when it carries no conflict.
func (n *GraphNode) WinningVersion() string {
	if n.Conflict == nil {
		return ""
	}
	return n.Conflict.WinningVersion
}

// SkipChildren is returned by a WalkFunc to skip the subtree of the current
// node.
var SkipChildren = errors.New("skip children")

// WalkFunc is called for every visited node.
type WalkFunc func(node *GraphNode) error

// Walk visits the node and its descendants in pre-order. Returning
// SkipChildren prunes the subtree; any other error stops the walk and is
// returned.
func (n *GraphNode) Walk(fn WalkFunc) error {
	if err := fn(n); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, child := range n.Children {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
