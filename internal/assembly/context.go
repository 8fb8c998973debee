package assembly

import (
	"path/filepath"
	"strings"
)

// PathSet is one destination directory and its placements in append order.
type PathSet struct {
	Dir     string
	Entries []PathEntry
}

// Context is the record of one assembly pass.
type Context struct {
	Name string
	Root string
	Sets []*PathSet
}

// New creates an empty Context.
func New(name, root string) *Context {
	return &Context{Name: name, Root: root}
}

// AssemblyName builds the stable name of a Context:
// TC::<prefix>::<artifactID>[::<suffix>].
func AssemblyName(prefix, artifactID, suffix string) string {
	name := "TC::" + prefix + "::" + artifactID
	if strings.TrimSpace(suffix) != "" {
		name += "::" + suffix
	}
	return name
}

// SetBuilder appends entries to the PathSet it was created for.
type SetBuilder struct {
	set *PathSet
}

// Begin starts a new PathSet for dir and returns its builder. Entries for a
// directory are only ever added through the builder of their own set.
func (c *Context) Begin(dir string) *SetBuilder {
	set := &PathSet{Dir: dir}
	c.Sets = append(c.Sets, set)
	return &SetBuilder{set: set}
}

// Add appends entries to the set.
func (b *SetBuilder) Add(entries ...PathEntry) *SetBuilder {
	b.set.Entries = append(b.set.Entries, entries...)
	return b
}

// Dir returns the directory of the set.
func (b *SetBuilder) Dir() string {
	return b.set.Dir
}

// Len returns the number of entries in the set.
func (b *SetBuilder) Len() int {
	return len(b.set.Entries)
}

// Abs resolves p against the Context root. Absolute paths are returned
// cleaned.
func (c *Context) Abs(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Root == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Root, p)
}

// Rebase returns a deep copy of the Context rooted at root. Every path of the
// copy is relative to root; paths of the receiver that are already relative
// are first resolved against its own root. The number and order of sets and
// entries is preserved, and entries without paths are copied unchanged.
func (c *Context) Rebase(root string) *Context {
	root = filepath.Clean(root)
	move := func(p string) string {
		if p == "" {
			return p
		}
		abs := c.Abs(p)
		if !filepath.IsAbs(abs) {
			return p
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return abs
		}
		return rel
	}

	out := &Context{
		Name: c.Name,
		Root: root,
		Sets: make([]*PathSet, len(c.Sets)),
	}
	for i, set := range c.Sets {
		copied := &PathSet{
			Dir:     move(set.Dir),
			Entries: make([]PathEntry, len(set.Entries)),
		}
		for j, e := range set.Entries {
			copied.Entries[j] = e.rebase(move)
		}
		out.Sets[i] = copied
	}
	return out
}

// Sources returns every source path of the Context in set and entry order.
func (c *Context) Sources() []string {
	var out []string
	for _, set := range c.Sets {
		for _, e := range set.Entries {
			out = append(out, e.Sources()...)
		}
	}
	return out
}
