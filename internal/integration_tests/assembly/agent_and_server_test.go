package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/plugasm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pluginHCL = `
project {
  group_id    = "org.example"
  artifact_id = "demo"
  version     = "1.0"
  packaging   = "pom"
}

resolver {
  repository = "repo"
}

agent {
  spec = "org.example:demo-agent"
}

server {
  spec                         = "org.example:demo-server"
  fail_on_missing_dependencies = false
}
`

const pluginGraph = `
root:
  coordinate: org.example:demo:pom:1.0
  children:
    - coordinate: org.example:demo-agent:1.0
      children:
        - coordinate: lib:c:2.0
        - coordinate: org.jetbrains.teamcity:agent-api:2020.1
    - coordinate: org.example:demo-server:1.0
      children:
        - coordinate: lib:c:1.0
          conflict:
            winning_version: "2.0"
        - coordinate: lib:missing:1.0
`

const serverDescriptor = `<?xml version="1.0" encoding="UTF-8"?>
<teamcity-plugin><info><name>demo</name></info></teamcity-plugin>
`

func pluginProject(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		testutil.ConfigFile: pluginHCL,
		testutil.GraphFile:  pluginGraph,
		testutil.RepoPath(t, "org.example:demo-agent:1.0"):                "agent",
		testutil.RepoPath(t, "org.example:demo-server:1.0"):               "server",
		testutil.RepoPath(t, "lib:c:1.0"):                                 "c1",
		testutil.RepoPath(t, "lib:c:2.0"):                                 "c2",
		testutil.RepoPath(t, "org.jetbrains.teamcity:agent-api:2020.1"): "api",
		filepath.Join("target", "classes", "META-INF", "teamcity-plugin.xml"): serverDescriptor,
	}
}

// TestAgentAndServer_Assemble runs both workflows over a graph with a version
// conflict and a missing dependency and checks the produced archives.
func TestAgentAndServer_Assemble(t *testing.T) {
	// --- Arrange & Act ---
	result := testutil.RunIntegrationTest(t, pluginProject(t))

	// --- Assert ---
	require.NoError(t, result.Err, "assembly should succeed. Logs:\n%s", result.LogOutput)

	testutil.AssertArchiveEntries(t, result.Work("agent", "demo.zip"),
		"demo/lib/c-2.0.jar",
		"demo/lib/demo-agent-1.0.jar",
		"demo/teamcity-plugin.xml",
	)
	testutil.AssertArchiveEntries(t, result.Work("dist", "demo.zip"),
		"agent/demo.zip",
		"server/c-2.0.jar",
		"server/demo-server-1.0.jar",
		"server/missing-1.0.jar",
		"teamcity-plugin.xml",
	)

	testutil.AssertFileContent(t, result.Work("plugin", "demo", "server", "c-2.0.jar"), "c2")
	testutil.AssertFileContent(t, result.Work("plugin", "demo", "server", "missing-1.0.jar"), "")
	testutil.AssertFileContent(t, result.Work("plugin", "demo", "teamcity-plugin.xml"), serverDescriptor)

	agentDescriptor, err := os.ReadFile(result.Work("agent-unpacked", "demo", "teamcity-plugin.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(agentDescriptor), "teamcity-agent-plugin")

	require.NotNil(t, result.Summary)
	assert.Len(t, result.Summary.IDEFiles, 7)
	assert.Contains(t, result.LogOutput, "Dependency not found, created an empty placeholder.")
	assert.Contains(t, result.LogOutput, "Conflicted dependency substituted.")
}

func TestAgentAndServer_IDEArtifacts(t *testing.T) {
	// --- Arrange & Act ---
	result := testutil.RunIntegrationTest(t, pluginProject(t))

	// --- Assert ---
	require.NoError(t, result.Err, "Logs:\n%s", result.LogOutput)

	artifacts := result.Path(".idea", "artifacts")
	for _, name := range []string{
		"TC__AGENT__demo__EXPLODED.xml",
		"TC__AGENT__demo.xml",
		"TC__SERVER__demo__EXPLODED.xml",
		"TC__SERVER__demo.xml",
	} {
		assert.FileExists(t, filepath.Join(artifacts, name))
	}

	server, err := os.ReadFile(filepath.Join(artifacts, "TC__SERVER__demo__EXPLODED.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(server), `<artifact name="TC::SERVER::demo::EXPLODED">`)
	assert.Contains(t, string(server), `<element id="artifact" artifact-name="TC::AGENT::demo"/>`)
}

// TestAgentAndServer_Converges checks that a second run over an unchanged
// project leaves the same layout behind and removes stale files.
func TestAgentAndServer_Converges(t *testing.T) {
	// --- Arrange ---
	first := testutil.RunIntegrationTest(t, pluginProject(t))
	require.NoError(t, first.Err, "Logs:\n%s", first.LogOutput)

	stale := first.Work("plugin", "demo", "server", "stale.jar")
	testutil.WriteFiles(t, first.Dir, map[string]string{
		filepath.Join("target", "teamcity", "plugin", "demo", "server", "stale.jar"): "stale",
	})

	// --- Act ---
	second := testutil.Rerun(t, first.Dir)

	// --- Assert ---
	require.NoError(t, second.Err, "Logs:\n%s", second.LogOutput)
	assert.NoFileExists(t, stale)
	testutil.AssertArchiveEntries(t, second.Work("dist", "demo.zip"),
		"agent/demo.zip",
		"server/c-2.0.jar",
		"server/demo-server-1.0.jar",
		"server/missing-1.0.jar",
		"teamcity-plugin.xml",
	)
}
