package archive

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readEntry(t *testing.T, archive, name string) string {
	t.Helper()
	r, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("entry %s not found in %s", name, archive)
	return ""
}

func TestWriteZip(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "demo", "lib", "commons-logging-1.1.1.jar"), "jar")
	writeFile(t, filepath.Join(src, "demo", "teamcity-plugin.xml"), "<teamcity-agent-plugin/>")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "demo", "empty"), 0o755))
	dest := filepath.Join(t.TempDir(), "agent", "demo.zip")

	// --- Act ---
	err := NewZipWriter().WriteZip(ctx, src, dest)

	// --- Assert ---
	require.NoError(t, err)
	names, err := List(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"demo/empty/",
		"demo/lib/commons-logging-1.1.1.jar",
		"demo/teamcity-plugin.xml",
	}, names)
	assert.Equal(t, "<teamcity-agent-plugin/>", readEntry(t, dest, "demo/teamcity-plugin.xml"))
}

func TestWriteZip_ReplacesExistingArchive(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out.zip")
	writeFile(t, filepath.Join(src, "old.txt"), "old")
	require.NoError(t, NewZipWriter().WriteZip(ctx, src, dest))

	require.NoError(t, os.Remove(filepath.Join(src, "old.txt")))
	writeFile(t, filepath.Join(src, "new.txt"), "new")
	require.NoError(t, NewZipWriter().WriteZip(ctx, src, dest))

	names, err := List(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.txt"}, names)
}

func TestWriteZip_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "b.txt"), "b")
	writeFile(t, filepath.Join(src, "a", "c.txt"), "c")
	out := t.TempDir()
	first, second := filepath.Join(out, "1.zip"), filepath.Join(out, "2.zip")

	require.NoError(t, NewZipWriter().WriteZip(ctx, src, first))
	require.NoError(t, NewZipWriter().WriteZip(ctx, src, second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteZip_LargeFileMode(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "big.bin"), "0123456789abcdef")
	writeFile(t, filepath.Join(src, "small.txt"), "s")
	outDir := t.TempDir()
	dest := filepath.Join(outDir, "big.zip")
	w := &ZipWriter{Threshold: 8}

	// --- Act ---
	err := w.WriteZip(ctx, src, dest)

	// --- Assert ---
	require.NoError(t, err)
	names, err := List(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"big.bin", "small.txt"}, names)
	assert.Equal(t, "0123456789abcdef", readEntry(t, dest, "big.bin"))

	left, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, left, 1, "the temporary file is renamed into place")
	assert.Equal(t, "big.zip", left[0].Name())
}

func TestWriteZip_TempFileModeUsesTotalSize(t *testing.T) {
	testCases := []struct {
		name     string
		files    map[string]string
		wantTemp bool
	}{
		{
			name:     "many small files over the threshold",
			files:    map[string]string{"a.txt": "aaaaa", "b.txt": "bbbbb", "c.txt": "ccccc"},
			wantTemp: true,
		},
		{
			name:     "payload under the threshold",
			files:    map[string]string{"a.txt": "aaa", "b.txt": "bbb"},
			wantTemp: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			ctx := ctxlog.WithLogger(context.Background(), logger)
			src := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, filepath.Join(src, name), content)
			}
			dest := filepath.Join(t.TempDir(), "out.zip")
			w := &ZipWriter{Threshold: 10}

			// --- Act ---
			err := w.WriteZip(ctx, src, dest)

			// --- Assert ---
			require.NoError(t, err)
			names, err := List(dest)
			require.NoError(t, err)
			assert.Len(t, names, len(tc.files))
			if tc.wantTemp {
				assert.Contains(t, logs.String(), "writing through a temporary file")
			} else {
				assert.NotContains(t, logs.String(), "writing through a temporary file")
			}
		})
	}
}

func TestWriteZip_MissingSource(t *testing.T) {
	err := NewZipWriter().WriteZip(context.Background(), filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "x.zip"))

	require.Error(t, err)
	assert.True(t, asmerr.Is(err, asmerr.IOFailure))
}

func TestWriteGroup(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	first, second := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(first, "css", "plugin.css"), "css")
	writeFile(t, filepath.Join(second, "page.jsp"), "jsp")
	writeFile(t, filepath.Join(second, "css", "plugin.css"), "shadowed")
	dest := filepath.Join(t.TempDir(), "demo-teamcity-plugin-resources.jar")

	// --- Act ---
	err := NewZipWriter().WriteGroup(ctx, dest, "buildServerResources", []string{
		first,
		filepath.Join(t.TempDir(), "missing"),
		second,
	})

	// --- Assert ---
	require.NoError(t, err)
	names, err := List(dest)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"buildServerResources/",
		"buildServerResources/css/plugin.css",
		"buildServerResources/page.jsp",
	}, names)
	assert.Equal(t, "css", readEntry(t, dest, "buildServerResources/css/plugin.css"))
}
