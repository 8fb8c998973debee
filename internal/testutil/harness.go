// Package testutil provides the harness used by the integration tests: it
// lays a project out in a temporary directory, runs the whole application
// against it and captures the outcome.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/plugasm/internal/app"
	"github.com/specialistvlad/plugasm/internal/hcl"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/stretchr/testify/require"
)

// Conventional file names inside a harness project.
const (
	ConfigFile = "plugasm.hcl"
	GraphFile  = "graph.yaml"
	RepoDir    = "repo"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Dir       string
	LogOutput string
	Err       error
	App       *app.App
	Summary   *app.Summary
}

// Path joins parts below the project directory.
func (r *HarnessResult) Path(parts ...string) string {
	return filepath.Join(append([]string{r.Dir}, parts...)...)
}

// Work joins parts below the default working directory.
func (r *HarnessResult) Work(parts ...string) string {
	return r.Path(append([]string{"target", "teamcity"}, parts...)...)
}

// RepoPath returns the repository location of coord relative to the project
// directory, for use as a key of the files map.
func RepoPath(t *testing.T, coord string) string {
	t.Helper()
	c, err := model.ParseCoordinate(coord)
	require.NoError(t, err)
	segments := append([]string{RepoDir}, strings.Split(c.Group, ".")...)
	segments = append(segments, c.Name, c.Version, c.FileName())
	return filepath.Join(segments...)
}

// WriteFiles writes every file of the map below dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// RunIntegrationTest writes files into a fresh directory and runs the
// application with ConfigFile and GraphFile from it.
func RunIntegrationTest(t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return Rerun(t, dir)
}

// RunWithConfigs is RunIntegrationTest with explicit configuration paths,
// relative to the project directory. Directories are scanned for .hcl files.
func RunWithConfigs(t *testing.T, files map[string]string, configs ...string) *HarnessResult {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return run(t, dir, configs)
}

// Rerun runs the application again on an existing harness directory.
func Rerun(t *testing.T, dir string) *HarnessResult {
	t.Helper()
	return run(t, dir, []string{ConfigFile})
}

func run(t *testing.T, dir string, configs []string) *HarnessResult {
	t.Helper()

	logBuffer := &app.SafeBuffer{}
	result := &HarnessResult{Dir: dir}
	defer func() {
		result.LogOutput = logBuffer.String()
		if os.Getenv("PLUGASM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
		}
	}()

	paths := make([]string, len(configs))
	for i, c := range configs {
		paths[i] = filepath.Join(dir, c)
	}
	cfg, err := app.NewConfig(app.Config{
		ConfigPaths: paths,
		GraphPath:   filepath.Join(dir, GraphFile),
		LogLevel:    "debug",
		LogFormat:   "text",
	})
	require.NoError(t, err)

	result.App, result.Err = app.NewApp(logBuffer, cfg, hcl.NewLoader())
	if result.Err != nil {
		return result
	}
	result.Summary, result.Err = result.App.Run(context.Background())
	return result
}
