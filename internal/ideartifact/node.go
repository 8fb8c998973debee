package ideartifact

import (
	"path/filepath"
	"strings"

	"github.com/specialistvlad/plugasm/internal/assembly"
)

// Kind is the type of a Node.
type Kind int

const (
	KindDir Kind = iota
	KindFile
	KindDirCopy
	KindDependency
	KindArtifact
	KindCompressed
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindDirCopy:
		return "dir-copy"
	case KindDependency:
		return "dependency"
	case KindArtifact:
		return "artifact"
	case KindCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// Node is one element of the rendered tree. Directory nodes carry a Name;
// every other node carries the entry it was built from.
type Node struct {
	Name     string
	Kind     Kind
	Entry    assembly.PathEntry
	Children []*Node
}

// Build replays the path sets of ac into a tree. Each set dir is split into
// segments, empty and "." segments are skipped, and existing directory
// nodes are reused by name. One node per entry is appended below the last
// segment.
func Build(ac *assembly.Context) *Node {
	root := &Node{Kind: KindDir}
	for _, set := range ac.Sets {
		dir := root
		for _, seg := range segments(set.Dir) {
			dir = dir.child(seg)
		}
		for _, e := range set.Entries {
			dir.Children = append(dir.Children, entryNode(e))
		}
	}
	return root
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == KindDir && c.Name == name {
			return c
		}
	}
	c := &Node{Name: name, Kind: KindDir}
	n.Children = append(n.Children, c)
	return c
}

func entryNode(e assembly.PathEntry) *Node {
	n := &Node{Name: assembly.Name(e), Entry: e}
	switch e.(type) {
	case assembly.DependencyEntry:
		n.Kind = KindDependency
	case assembly.FileEntry:
		n.Kind = KindFile
	case assembly.DirCopyEntry:
		n.Kind = KindDirCopy
	case assembly.ArtifactRefEntry:
		n.Kind = KindArtifact
	case assembly.CompressedGroupEntry:
		n.Kind = KindCompressed
	}
	return n
}

func segments(p string) []string {
	var out []string
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == "" || seg == "." {
			continue
		}
		out = append(out, seg)
	}
	return out
}
