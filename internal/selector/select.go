package selector

import (
	"context"
	"strings"

	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/model"
)

// Selection is the result of selecting graph nodes for one assembly.
type Selection struct {
	// Roots are the nodes the spec matched; the graph root for "*" or ".".
	Roots []*model.GraphNode
	// Collected is the transitive closure before conflict substitution.
	Collected []*model.GraphNode
	// Nodes is the final, de-duplicated selection in traversal order.
	Nodes []*model.GraphNode
	// Substituted maps each conflicted node to the nodes that replaced it.
	Substituted map[*model.GraphNode][]*model.GraphNode
}

// Coordinates returns the coordinates of the selected nodes.
func (s *Selection) Coordinates() []model.Coordinate {
	out := make([]model.Coordinate, len(s.Nodes))
	for i, n := range s.Nodes {
		out[i] = n.Coordinate
	}
	return out
}

// Select walks the graph under root and returns the nodes that belong to an
// assembly described by spec and exclusions.
func Select(ctx context.Context, root *model.GraphNode, spec string, exclusions []string) (*Selection, error) {
	logger := ctxlog.FromContext(ctx)

	excluded, err := ParsePatterns(exclusions)
	if err != nil {
		return nil, err
	}

	var roots []*model.GraphNode
	if IsMatchAll(spec) {
		roots = []*model.GraphNode{root}
	} else {
		included, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		roots = collectMatching(root, func(n *model.GraphNode) bool {
			return included.MatchesAny(n.Coordinate)
		})
	}
	logger.Debug("Selection roots found.", "spec", spec, "roots", len(roots))

	keep := func(n *model.GraphNode) bool {
		return !excluded.MatchesAny(n.Coordinate) && !insidePluginPackage(n)
	}
	var collected []*model.GraphNode
	for _, r := range roots {
		collected = append(collected, collectClosure(r, keep)...)
	}

	sel := &Selection{
		Roots:       roots,
		Collected:   collected,
		Substituted: make(map[*model.GraphNode][]*model.GraphNode),
	}

	keepSubstitute := func(n *model.GraphNode) bool {
		return !excluded.MatchesAny(n.Coordinate)
	}
	var result []*model.GraphNode
	for _, n := range collected {
		winner := n.WinningVersion()
		if winner == "" {
			result = append(result, n)
			continue
		}
		var substitutes []*model.GraphNode
		for _, s := range findSubstitutions(root, n, winner) {
			substitutes = append(substitutes, collectClosure(s, keepSubstitute)...)
		}
		sel.Substituted[n] = substitutes
		if len(substitutes) == 0 {
			logger.Warn("No node found at the winning version, dropping conflicted dependency.",
				"coordinate", n.Coordinate.String(), "winning_version", winner)
			continue
		}
		logger.Debug("Conflicted dependency substituted.",
			"coordinate", n.Coordinate.String(), "winning_version", winner, "substitutes", len(substitutes))
		result = append(result, substitutes...)
	}

	sel.Nodes = distinct(result)
	logger.Info("Dependencies selected.", "spec", spec, "exclusions", strings.Join(excluded.Strings(), ","), "count", len(sel.Nodes))
	return sel, nil
}

// insidePluginPackage reports whether the node's parent is a packaged
// plugin; its contents are already part of that package.
func insidePluginPackage(n *model.GraphNode) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	switch parent.Coordinate.Classifier {
	case model.ClassifierServerPlugin, model.ClassifierAgentPlugin:
		return true
	default:
		return false
	}
}

// collectMatching returns every node in the graph accepted by match. Non
// matching nodes do not stop the traversal.
func collectMatching(root *model.GraphNode, match func(*model.GraphNode) bool) []*model.GraphNode {
	var out []*model.GraphNode
	_ = root.Walk(func(n *model.GraphNode) error {
		if match(n) {
			out = append(out, n)
		}
		return nil
	})
	return out
}

// collectClosure returns start and its descendants in pre-order, skipping
// every subtree whose top node is rejected by keep.
func collectClosure(start *model.GraphNode, keep func(*model.GraphNode) bool) []*model.GraphNode {
	var out []*model.GraphNode
	_ = start.Walk(func(n *model.GraphNode) error {
		if !keep(n) {
			return model.SkipChildren
		}
		out = append(out, n)
		return nil
	})
	return out
}

// findSubstitutions finds the nodes of the graph with the conflicted node's
// group, name and type at the winning version.
func findSubstitutions(root, conflicted *model.GraphNode, winner string) []*model.GraphNode {
	want := conflicted.Coordinate
	return collectMatching(root, func(n *model.GraphNode) bool {
		if n == conflicted {
			return false
		}
		c := n.Coordinate
		return c.Group == want.Group &&
			c.Name == want.Name &&
			typeOf(c) == typeOf(want) &&
			c.Version == winner
	})
}

func typeOf(c model.Coordinate) string {
	if c.Type == "" {
		return model.DefaultType
	}
	return c.Type
}

// distinct removes nodes whose coordinate identity was already seen,
// keeping the first occurrence.
func distinct(nodes []*model.GraphNode) []*model.GraphNode {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]*model.GraphNode, 0, len(nodes))
	for _, n := range nodes {
		key := n.Coordinate.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}
