package ideartifact

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/assembly"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
)

// ProjectDir is the IDE macro for the project directory.
const ProjectDir = "$PROJECT_DIR$"

// ArtifactsDir is where WriteAll places descriptors, relative to the
// project root.
var ArtifactsDir = filepath.Join(".idea", "artifacts")

type attr struct{ name, value string }

type element struct {
	tag      string
	attrs    []attr
	text     string
	children []*element
}

func newElement(tag string, attrs ...attr) *element {
	return &element{tag: tag, attrs: attrs}
}

func (e *element) add(children ...*element) *element {
	e.children = append(e.children, children...)
	return e
}

func id(value string) attr   { return attr{"id", value} }
func name(value string) attr { return attr{"name", value} }

// Render writes the descriptor of ac. Paths are written relative to
// projectRoot.
func Render(w io.Writer, ac *assembly.Context, projectRoot string) error {
	r := renderer{ac: ac, projectRoot: projectRoot}

	output := newElement("output-path")
	output.text = r.projectPath(ac.Root)

	root := newElement("root", id("root"))
	for _, child := range Build(ac).Children {
		if el := r.element(child); el != nil {
			root.add(el)
		}
	}

	doc := newElement("component", name("ArtifactManager")).add(
		newElement("artifact", name(ac.Name)).add(output, root),
	)

	bw := bufio.NewWriter(w)
	writeElement(bw, doc, 0)
	return bw.Flush()
}

type renderer struct {
	ac          *assembly.Context
	projectRoot string
}

// projectPath rewrites p, relative to the context root or absolute, as a
// $PROJECT_DIR$ path.
func (r renderer) projectPath(p string) string {
	abs := r.ac.Abs(p)
	rel, err := filepath.Rel(r.projectRoot, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	if rel == "." {
		return ProjectDir
	}
	return ProjectDir + "/" + filepath.ToSlash(rel)
}

// element returns nil for entries that render to nothing.
func (r renderer) element(n *Node) *element {
	var el *element
	switch e := n.Entry.(type) {
	case nil:
		el = newElement("element", id("directory"), name(n.Name))
	case assembly.DependencyEntry:
		if e.LocalModule {
			el = newElement("element", id("archive"), name(e.DestinationName)).add(
				newElement("element", id("module-output"), name(e.Coordinate.Name)),
			)
		} else {
			lib := fmt.Sprintf("Maven: %s:%s:%s", e.Coordinate.Group, e.Coordinate.Name, e.Coordinate.Version)
			el = newElement("element", id("library"), name(lib), attr{"level", "project"})
		}
	case assembly.FileEntry:
		// A tolerated missing file with no known source has nothing to copy.
		if e.SourcePath == "" {
			return nil
		}
		el = newElement("element", id("file-copy"), attr{"path", r.projectPath(e.SourcePath)})
		if e.DestinationName != "" {
			el.attrs = append(el.attrs, attr{"output-file-name", e.DestinationName})
		}
	case assembly.DirCopyEntry:
		el = r.dirCopy(e.SourcePath)
	case assembly.ArtifactRefEntry:
		el = newElement("element", id("artifact"), attr{"artifact-name", e.AssemblyName})
		if e.DestinationName != "" {
			el = newElement("element", id("archive"), name(e.DestinationName)).add(el)
		}
	case assembly.CompressedGroupEntry:
		el = newElement("element", id("archive"), name(e.ArchiveName))
		parent := el
		for _, seg := range segments(e.Prefix) {
			dir := newElement("element", id("directory"), name(seg))
			parent.add(dir)
			parent = dir
		}
		for _, src := range e.SourcePaths {
			parent.add(r.dirCopy(src))
		}
	}
	for _, child := range n.Children {
		if c := r.element(child); c != nil {
			el.add(c)
		}
	}
	return el
}

func (r renderer) dirCopy(p string) *element {
	return newElement("element", id("dir-copy"), attr{"path", r.projectPath(p)})
}

func writeElement(w *bufio.Writer, e *element, depth int) {
	indent := strings.Repeat("  ", depth)
	w.WriteString(indent)
	w.WriteString("<")
	w.WriteString(e.tag)
	for _, a := range e.attrs {
		w.WriteString(" ")
		w.WriteString(a.name)
		w.WriteString(`="`)
		xml.EscapeText(w, []byte(a.value))
		w.WriteString(`"`)
	}
	switch {
	case len(e.children) == 0 && e.text == "":
		w.WriteString("/>\n")
	case len(e.children) == 0:
		w.WriteString(">")
		xml.EscapeText(w, []byte(e.text))
		w.WriteString("</" + e.tag + ">\n")
	default:
		w.WriteString(">\n")
		for _, c := range e.children {
			writeElement(w, c, depth+1)
		}
		w.WriteString(indent + "</" + e.tag + ">\n")
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// FileName returns the descriptor file name for an assembly name.
func FileName(assemblyName string) string {
	return unsafeChars.ReplaceAllString(assemblyName, "_") + ".xml"
}

// WriteAll writes one descriptor per context into the artifacts directory
// of projectRoot and returns the written files. A context that fails to
// render is logged and skipped.
func WriteAll(ctx context.Context, contexts []*assembly.Context, projectRoot string) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	dir := filepath.Join(projectRoot, ArtifactsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &asmerr.Error{Kind: asmerr.IOFailure, Op: "create artifacts directory", Dest: dir, Err: err}
	}

	var written []string
	for _, ac := range contexts {
		dest := filepath.Join(dir, FileName(ac.Name))
		if err := writeFile(dest, ac, projectRoot); err != nil {
			logger.Warn("Failed to write IDE artifact.", "assembly", ac.Name, "path", dest, "error", err)
			continue
		}
		logger.Debug("IDE artifact written.", "assembly", ac.Name, "path", dest)
		written = append(written, dest)
	}
	return written, nil
}

func writeFile(dest string, ac *assembly.Context, projectRoot string) error {
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if err := Render(f, ac, projectRoot); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
