// Package ideartifact renders assembly contexts as IDE artifact
// descriptors, the XML files an IDE reads from .idea/artifacts to rebuild
// the same layout from its own project model.
//
// Rendering happens in two steps. Build replays the path sets of a context
// into a directory shaped Node tree, and Render serializes that tree. Both
// are deterministic: children and attributes appear in insertion order.
package ideartifact
