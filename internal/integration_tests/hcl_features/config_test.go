package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/plugasm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graph = `
root:
  coordinate: org.example:demo:pom:3.1
  children:
    - coordinate: lib:a:1.0
    - coordinate: lib:b:1.0
`

// TestMultiFileConfiguration loads a directory of files, with the project
// version taken from the environment and names derived from the project.
func TestMultiFileConfiguration(t *testing.T) {
	// --- Arrange ---
	t.Setenv("PLUGASM_IT_VERSION", "3.1")
	files := map[string]string{
		filepath.Join("conf", "00-project.hcl"): `
project {
  group_id    = "org.example"
  artifact_id = "demo"
  version     = env.PLUGASM_IT_VERSION
  packaging   = "pom"
  base_dir    = ".."
}

resolver {
  repository = "repo"
}
`,
		filepath.Join("conf", "10-agent.hcl"): `
agent {
  spec = "lib:a"
}
`,
		filepath.Join("conf", "20-server.hcl"): `
server {
  spec        = "lib:b"
  plugin_name = "${project.artifact_id}-srv"
}
`,
		testutil.GraphFile:              graph,
		testutil.RepoPath(t, "lib:a:1.0"): "a",
		testutil.RepoPath(t, "lib:b:1.0"): "b",
	}

	// --- Act ---
	result := testutil.RunWithConfigs(t, files, "conf")

	// --- Assert ---
	require.NoError(t, result.Err, "Logs:\n%s", result.LogOutput)

	testutil.AssertArchiveEntries(t, result.Work("agent", "demo.zip"),
		"demo/lib/a-1.0.jar",
		"demo/teamcity-plugin.xml",
	)
	testutil.AssertArchiveEntries(t, result.Work("dist", "demo-srv.zip"),
		"agent/demo.zip",
		"server/b-1.0.jar",
		"teamcity-plugin.xml",
	)

	descriptor, err := os.ReadFile(result.Work("plugin", "demo-srv", "teamcity-plugin.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(descriptor), "<version>3.1</version>")
}

func TestLaterFileWins(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		filepath.Join("conf", "00-project.hcl"): `
project {
  group_id    = "org.example"
  artifact_id = "demo"
  version     = "3.1"
  packaging   = "pom"
  base_dir    = ".."
}

resolver {
  repository = "repo"
}

server {
  spec = "lib:a"
}
`,
		filepath.Join("conf", "50-override.hcl"): `
server {
  spec          = "lib:b"
  exclude_agent = false
}

ide {
  enabled = false
}
`,
		testutil.GraphFile:              graph,
		testutil.RepoPath(t, "lib:a:1.0"): "a",
		testutil.RepoPath(t, "lib:b:1.0"): "b",
	}

	// --- Act ---
	result := testutil.RunWithConfigs(t, files, "conf")

	// --- Assert ---
	require.NoError(t, result.Err, "Logs:\n%s", result.LogOutput)
	testutil.AssertArchiveEntries(t, result.Work("dist", "demo.zip"),
		"server/b-1.0.jar",
		"teamcity-plugin.xml",
	)
	assert.Empty(t, result.Summary.IDEFiles)
	assert.NoDirExists(t, result.Path(".idea"))
}

func TestProjectDefinedTwice(t *testing.T) {
	project := `
project {
  group_id    = "org.example"
  artifact_id = "demo"
  version     = "3.1"
}
`
	files := map[string]string{
		filepath.Join("conf", "a.hcl"): project,
		filepath.Join("conf", "b.hcl"): project,
		testutil.GraphFile:             graph,
	}

	result := testutil.RunWithConfigs(t, files, "conf")

	require.Error(t, result.Err)
	assert.ErrorContains(t, result.Err, "project block defined in both")
}
