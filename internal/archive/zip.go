package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
)

// LargeFileThreshold is the total size of the source files above which
// archives are written through a temporary file instead of memory.
const LargeFileThreshold int64 = 50 << 20

// modTime is stamped on every entry.
var modTime = time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)

// Writer writes a directory tree into a zip file.
type Writer interface {
	WriteZip(ctx context.Context, srcDir, destZip string) error
}

// ZipWriter is the Writer used by the workflows.
type ZipWriter struct {
	// Threshold overrides LargeFileThreshold when positive.
	Threshold int64
}

// GroupWriter additionally packs several directories under a common prefix.
type GroupWriter interface {
	Writer
	WriteGroup(ctx context.Context, destJar, prefix string, sources []string) error
}

var _ GroupWriter = (*ZipWriter)(nil)

// NewZipWriter returns a ZipWriter with the default threshold.
func NewZipWriter() *ZipWriter {
	return &ZipWriter{}
}

func (z *ZipWriter) threshold() int64 {
	if z.Threshold > 0 {
		return z.Threshold
	}
	return LargeFileThreshold
}

// entry is one item of an archive, relative to its source root.
type entry struct {
	name string // slash separated; directories end with "/"
	path string // empty for directories
	size int64
}

// WriteZip packs the contents of srcDir into destZip.
func (z *ZipWriter) WriteZip(ctx context.Context, srcDir, destZip string) error {
	entries, err := collect(srcDir, "")
	if err != nil {
		return &asmerr.Error{Kind: asmerr.IOFailure, Op: "list archive sources", Source: srcDir, Dest: destZip, Err: err}
	}
	return z.write(ctx, destZip, entries)
}

// WriteGroup packs several directories into destJar, every one of them
// stored below prefix. Sources that do not exist are skipped.
func (z *ZipWriter) WriteGroup(ctx context.Context, destJar, prefix string, sources []string) error {
	prefix = strings.Trim(filepath.ToSlash(prefix), "/")
	var entries []entry
	seen := make(map[string]struct{})
	if prefix != "" {
		entries = append(entries, entry{name: prefix + "/"})
		seen[prefix+"/"] = struct{}{}
	}
	for _, src := range sources {
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			ctxlog.FromContext(ctx).Warn("Archive source does not exist, skipping.", "source", src, "dest", destJar)
			continue
		}
		found, err := collect(src, prefix)
		if err != nil {
			return &asmerr.Error{Kind: asmerr.IOFailure, Op: "list archive sources", Source: src, Dest: destJar, Err: err}
		}
		for _, e := range found {
			if _, dup := seen[e.name]; dup {
				continue
			}
			seen[e.name] = struct{}{}
			entries = append(entries, e)
		}
	}
	return z.write(ctx, destJar, entries)
}

func (z *ZipWriter) write(ctx context.Context, dest string, entries []entry) error {
	logger := ctxlog.FromContext(ctx).With("dest", dest)

	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to delete existing archive.", "error", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &asmerr.Error{Kind: asmerr.IOFailure, Op: "create archive directory", Dest: dest, Err: err}
	}

	var payload int64
	for _, e := range entries {
		payload += e.size
	}
	large := payload > z.threshold()

	var err error
	if large {
		logger.Debug("Large archive payload, writing through a temporary file.", "bytes", payload)
		err = writeViaTempFile(dest, entries)
	} else {
		err = writeInMemory(dest, entries)
	}
	if err != nil {
		return &asmerr.Error{Kind: asmerr.IOFailure, Op: "write archive", Dest: dest, Err: err}
	}
	logger.Debug("Archive written.", "entries", len(entries))
	return nil
}

func writeInMemory(dest string, entries []entry) error {
	var buf bytes.Buffer
	if err := writeEntries(&buf, entries); err != nil {
		return err
	}
	return os.WriteFile(dest, buf.Bytes(), 0o644)
}

func writeViaTempFile(dest string, entries []entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := writeEntries(tmp, entries); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, dest)
}

func writeEntries(w io.Writer, entries []entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addEntry(zw, e); err != nil {
			zw.Close()
			return fmt.Errorf("add %s: %w", e.name, err)
		}
	}
	return zw.Close()
}

func addEntry(zw *zip.Writer, e entry) error {
	header := &zip.FileHeader{
		Name:     e.name,
		Modified: modTime,
	}
	if strings.HasSuffix(e.name, "/") {
		header.Method = zip.Store
		header.SetMode(fs.ModeDir | 0o755)
		_, err := zw.CreateHeader(header)
		return err
	}

	header.Method = zip.Deflate
	header.SetMode(0o644)
	out, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	in, err := os.Open(e.path)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(out, in)
	return err
}

// collect lists the regular files below root, plus the directories that
// have no children, in lexical order. Names are prefixed with prefix. The
// root itself is never an entry. A root that is a file yields that file.
func collect(root, prefix string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			if d.IsDir() {
				return nil
			}
			rel = d.Name()
		}
		name := path.Join(prefix, filepath.ToSlash(rel))

		switch {
		case d.IsDir():
			children, err := os.ReadDir(p)
			if err != nil {
				return err
			}
			if len(children) == 0 {
				entries = append(entries, entry{name: name + "/"})
			}
		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			entries = append(entries, entry{name: name, path: p, size: info.Size()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// List returns the entry names of the archive at path in stored order.
func List(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}
