package depgraph

import (
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/plugasm/internal/model"
)

// Tokens are the indentation strings used to draw a tree.
type Tokens struct {
	Node     string
	LastNode string
	Fill     string
	LastFill string
}

var (
	StandardTokens   = Tokens{Node: "+- ", LastNode: "\\- ", Fill: "|  ", LastFill: "   "}
	WhitespaceTokens = Tokens{Node: "   ", LastNode: "   ", Fill: "   ", LastFill: "   "}
	ExtendedTokens   = Tokens{Node: "├─ ", LastNode: "└─ ", Fill: "│  ", LastFill: "   "}
)

// TokensByName maps "standard", "whitespace" and "extended" to their tokens.
// Unknown names get the standard set.
func TokensByName(name string) Tokens {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "whitespace":
		return WhitespaceTokens
	case "extended":
		return ExtendedTokens
	default:
		return StandardTokens
	}
}

// Print writes the tree below root, one node per line.
func Print(w io.Writer, root *model.GraphNode, tokens Tokens) error {
	return printNode(w, root, tokens, "", "", true)
}

// Sprint returns Print's output as a string.
func Sprint(root *model.GraphNode, tokens Tokens) string {
	var b strings.Builder
	_ = Print(&b, root, tokens)
	return b.String()
}

// PrintForest prints several trees one after another.
func PrintForest(w io.Writer, roots []*model.GraphNode, tokens Tokens) error {
	for _, root := range roots {
		if err := Print(w, root, tokens); err != nil {
			return err
		}
	}
	return nil
}

func printNode(w io.Writer, n *model.GraphNode, tokens Tokens, prefix, branch string, last bool) error {
	if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, Label(n)); err != nil {
		return err
	}

	childPrefix := prefix
	if branch != "" {
		if last {
			childPrefix += tokens.LastFill
		} else {
			childPrefix += tokens.Fill
		}
	}
	for i, child := range n.Children {
		isLast := i == len(n.Children)-1
		childBranch := tokens.Node
		if isLast {
			childBranch = tokens.LastNode
		}
		if err := printNode(w, child, tokens, childPrefix, childBranch, isLast); err != nil {
			return err
		}
	}
	return nil
}

// Label renders a node as group:name:type[:classifier]:version[:scope],
// wrapped in parentheses when the node lost a version conflict.
func Label(n *model.GraphNode) string {
	label := n.Coordinate.String()
	if n.Scope != "" {
		label += ":" + n.Scope
	}
	if v := n.WinningVersion(); v != "" {
		return fmt.Sprintf("(%s - omitted for conflict with %s)", label, v)
	}
	return label
}
