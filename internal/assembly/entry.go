package assembly

import "github.com/specialistvlad/plugasm/internal/model"

// PathEntry is one placement inside a PathSet. The set of implementations is
// closed: DependencyEntry, FileEntry, DirCopyEntry, ArtifactRefEntry and
// CompressedGroupEntry.
type PathEntry interface {
	// Sources returns the concrete source paths of the entry, nil when it
	// has none.
	Sources() []string

	rebase(fn func(string) string) PathEntry
}

// DependencyEntry is a resolved dependency copied into the set's directory.
type DependencyEntry struct {
	Coordinate      model.Coordinate
	LocalModule     bool
	DestinationName string
	SourcePath      string
}

func (e DependencyEntry) Sources() []string { return []string{e.SourcePath} }

func (e DependencyEntry) rebase(fn func(string) string) PathEntry {
	e.SourcePath = fn(e.SourcePath)
	return e
}

// FileEntry is a literal file, optionally renamed.
type FileEntry struct {
	DestinationName string
	SourcePath      string
}

func (e FileEntry) Sources() []string { return []string{e.SourcePath} }

func (e FileEntry) rebase(fn func(string) string) PathEntry {
	e.SourcePath = fn(e.SourcePath)
	return e
}

// DirCopyEntry copies the contents of a directory into the set's directory.
type DirCopyEntry struct {
	SourcePath string
}

func (e DirCopyEntry) Sources() []string { return []string{e.SourcePath} }

func (e DirCopyEntry) rebase(fn func(string) string) PathEntry {
	e.SourcePath = fn(e.SourcePath)
	return e
}

// ArtifactRefEntry links to the output of another Context by name. With a
// DestinationName the referenced output is packed into an archive of that
// name.
type ArtifactRefEntry struct {
	DestinationName string
	AssemblyName    string
}

func (e ArtifactRefEntry) Sources() []string { return nil }

func (e ArtifactRefEntry) rebase(func(string) string) PathEntry { return e }

// CompressedGroupEntry is an archive built from several source directories,
// stored under Prefix inside the archive.
type CompressedGroupEntry struct {
	ArchiveName string
	Prefix      string
	SourcePaths []string
}

func (e CompressedGroupEntry) Sources() []string { return e.SourcePaths }

func (e CompressedGroupEntry) rebase(fn func(string) string) PathEntry {
	paths := make([]string, len(e.SourcePaths))
	for i, p := range e.SourcePaths {
		paths[i] = fn(p)
	}
	e.SourcePaths = paths
	return e
}

// Name returns the destination name of an entry, "" when it is implicit.
func Name(e PathEntry) string {
	switch e := e.(type) {
	case DependencyEntry:
		return e.DestinationName
	case FileEntry:
		return e.DestinationName
	case DirCopyEntry:
		return ""
	case ArtifactRefEntry:
		return e.DestinationName
	case CompressedGroupEntry:
		return e.ArchiveName
	default:
		return ""
	}
}
