package testutil

import (
	"os"
	"testing"

	"github.com/specialistvlad/plugasm/internal/archive"
	"github.com/stretchr/testify/require"
)

// AssertArchiveEntries checks the exact, ordered entry list of a zip file.
func AssertArchiveEntries(t *testing.T, path string, want ...string) {
	t.Helper()
	got, err := archive.List(path)
	require.NoError(t, err, "archive %s should be readable", path)
	require.Equal(t, want, got, "unexpected entries in %s", path)
}

// AssertFileContent checks that path exists and holds content.
func AssertFileContent(t *testing.T, path, content string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, string(data), "unexpected content in %s", path)
}
