package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/plugasm/internal/archive"
	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/assembly"
	"github.com/specialistvlad/plugasm/internal/config"
	"github.com/specialistvlad/plugasm/internal/fsutil"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/specialistvlad/plugasm/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	t    *testing.T
	base string
	repo *resolver.LocalRepository
	env  *Env
}

func newFixture(t *testing.T, graph *model.GraphNode) *fixture {
	t.Helper()
	base := t.TempDir()
	repo := resolver.NewLocalRepository(filepath.Join(base, "repo"))
	project := config.Project{
		Coordinate:  model.Coordinate{Group: "org.example", Name: "demo", Version: "1.0", Type: "pom"},
		BaseDir:     base,
		BuildOutput: filepath.Join(base, "target", "classes"),
		WorkDir:     filepath.Join(base, "target", "teamcity"),
	}
	return &fixture{
		t:    t,
		base: base,
		repo: repo,
		env: &Env{
			Project:  project,
			Graph:    graph,
			Resolver: repo,
			Archiver: archive.NewZipWriter(),
		},
	}
}

func (f *fixture) publish(coord, content string) {
	f.t.Helper()
	c, err := model.ParseCoordinate(coord)
	require.NoError(f.t, err)
	writeFile(f.t, f.repo.PathOf(c), content)
}

func (f *fixture) work(parts ...string) string {
	return filepath.Join(append([]string{f.env.Project.WorkDir}, parts...)...)
}

func (f *fixture) agentConfig(spec string) config.Agent {
	return config.Agent{
		Spec:       spec,
		PluginName: "demo",
		Exclusions: []string{"org.jetbrains.teamcity", "::zip"},
		Descriptor: config.Descriptor{
			Path: filepath.Join(f.env.Project.BuildOutput, "META-INF", "teamcity-agent-plugin.xml"),
		},
	}
}

func (f *fixture) serverConfig() config.Server {
	out := f.env.Project.BuildOutput
	return config.Server{
		Spec:             "*",
		PluginName:       "demo",
		Exclusions:       []string{"org.jetbrains.teamcity"},
		CommonExclusions: []string{"org.jetbrains.teamcity"},
		KotlinDSLPath:    filepath.Join(out, "kotlin-dsl"),
		UISchemasPath:    filepath.Join(out, "ui-schemas"),
		Descriptor: config.Descriptor{
			Path: filepath.Join(out, "META-INF", "teamcity-plugin.xml"),
		},
	}
}

func node(s string) *model.GraphNode {
	c, err := model.ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return model.NewGraphNode(c)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func contextNames(contexts []*assembly.Context) []string {
	names := make([]string, len(contexts))
	for i, c := range contexts {
		names[i] = c.Name
	}
	return names
}

func ptr[T any](v T) *T { return &v }

func TestAgentWorkflow_Simple(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	graph := node("org.example:demo:pom:1.0").AddChild(
		node("lib:a:1.0"),
		node("org.jetbrains.teamcity:common-api:2020.1"),
	)
	f := newFixture(t, graph)
	f.publish("lib:a:1.0", "a")
	f.publish("org.jetbrains.teamcity:common-api:2020.1", "api")

	// --- Act ---
	result, err := NewAgentWorkflow(f.env, f.agentConfig("*")).Run(ctx)

	// --- Assert ---
	require.NoError(t, err)
	pluginDir := f.work("agent-unpacked", "demo")
	assert.Equal(t, "a", readFile(t, filepath.Join(pluginDir, "lib", "a-1.0.jar")))
	assert.NoFileExists(t, filepath.Join(pluginDir, "lib", "common-api-2020.1.jar"))
	assert.Contains(t, readFile(t, filepath.Join(pluginDir, "teamcity-plugin.xml")), "<plugin-deployment/>")
	assert.Equal(t, f.work("teamcity-agent-plugin-generated.xml"), result.DescriptorPath)

	names, err := archive.List(f.work("agent", "demo.zip"))
	require.NoError(t, err)
	assert.Equal(t, []string{"demo/lib/a-1.0.jar", "demo/teamcity-plugin.xml"}, names)

	assert.Equal(t, []string{"TC::AGENT::demo::EXPLODED", "TC::AGENT::demo::4IDEA", "TC::AGENT::demo"}, contextNames(result.Contexts))
	require.Len(t, result.Attached, 1)
	assert.Equal(t, model.ClassifierAgentPlugin, result.Attached[0].Classifier)
	assert.Equal(t, f.work("agent", "demo.zip"), result.Attached[0].Path)

	exploded := result.Contexts[0]
	require.Len(t, exploded.Sets, 2)
	assert.Equal(t, "lib", exploded.Sets[0].Dir)
	require.Len(t, exploded.Sets[0].Entries, 1)
	dep, ok := exploded.Sets[0].Entries[0].(assembly.DependencyEntry)
	require.True(t, ok)
	assert.Equal(t, "a-1.0.jar", dep.DestinationName)
	assert.Equal(t, ".", exploded.Sets[1].Dir)
	assert.Equal(t, "teamcity-plugin.xml", assembly.Name(exploded.Sets[1].Entries[0]))
}

func TestAgentWorkflow_MissingDependency(t *testing.T) {
	graph := node("org.example:demo:pom:1.0").AddChild(node("lib:b:1.0"))

	t.Run("placeholder when tolerated", func(t *testing.T) {
		f := newFixture(t, graph)
		cfg := f.agentConfig("*")
		cfg.FailOnMissingDependencies = ptr(false)

		_, err := NewAgentWorkflow(f.env, cfg).Run(context.Background())

		require.NoError(t, err)
		info, err := os.Stat(f.work("agent-unpacked", "demo", "lib", "b-1.0.jar"))
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("fails by default", func(t *testing.T) {
		f := newFixture(t, graph)

		_, err := NewAgentWorkflow(f.env, f.agentConfig("*")).Run(context.Background())

		require.Error(t, err)
		assert.True(t, asmerr.Is(err, asmerr.MissingSourceArtifact))
		assert.Contains(t, err.Error(), "lib:b:jar:1.0")
	})
}

func TestAgentWorkflow_ConflictSubstitution(t *testing.T) {
	// --- Arrange ---
	loser := node("lib:c:1.0")
	loser.Conflict = &model.ConflictInfo{WinningVersion: "2.0"}
	graph := node("org.example:demo:pom:1.0").AddChild(
		node("lib:x:1.0").AddChild(loser),
		node("lib:y:1.0").AddChild(node("lib:c:2.0")),
	)
	f := newFixture(t, graph)
	for _, c := range []string{"lib:x:1.0", "lib:y:1.0", "lib:c:1.0", "lib:c:2.0"} {
		f.publish(c, c)
	}

	// --- Act ---
	_, err := NewAgentWorkflow(f.env, f.agentConfig("lib:x")).Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	files, err := os.ReadDir(f.work("agent-unpacked", "demo", "lib"))
	require.NoError(t, err)
	var names []string
	for _, e := range files {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"x-1.0.jar", "c-2.0.jar"}, names)
}

func TestAgentWorkflow_CustomPluginName(t *testing.T) {
	graph := node("org.example:demo:pom:1.0").AddChild(node("lib:a:1.0"))
	f := newFixture(t, graph)
	f.publish("lib:a:1.0", "a")
	cfg := f.agentConfig("*")
	cfg.PluginName = "demo-agent"

	result, err := NewAgentWorkflow(f.env, cfg).Run(context.Background())

	require.NoError(t, err)
	descriptor := readFile(t, f.work("agent-unpacked", "demo-agent", "teamcity-plugin.xml"))
	assert.Contains(t, descriptor, "@@AGENT_PLUGIN_NAME=demo-agent@@")
	assert.FileExists(t, f.work("agent", "demo-agent.zip"))
	assert.Equal(t, "TC::AGENT::demo-agent", result.Contexts[2].Name)
}

func TestAgentWorkflow_EmptySelection(t *testing.T) {
	f := newFixture(t, node("org.example:demo:pom:1.0").AddChild(node("lib:a:1.0")))

	result, err := NewAgentWorkflow(f.env, f.agentConfig("nothing:here")).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Attached)
	assert.Equal(t, []string{"TC::AGENT::demo::EXPLODED"}, contextNames(result.Contexts))
	assert.NoFileExists(t, f.work("agent", "demo.zip"))
}

func TestAgentWorkflow_NotRequested(t *testing.T) {
	f := newFixture(t, node("org.example:demo:pom:1.0"))

	result, err := NewAgentWorkflow(f.env, config.Agent{}).Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Contexts)
	assert.NoDirExists(t, f.env.Project.WorkDir)
}

// serverFixture builds a project with every kind of server content.
func serverFixture(t *testing.T) (*fixture, config.Agent, config.Server) {
	t.Helper()
	graph := node("org.example:demo:pom:1.0").AddChild(
		node("lib:a:1.0"),
		node("lib:agent-part:1.0"),
		node("org.example:remote:zip:teamcity-agent-plugin:1.0"),
		node("org.jetbrains.teamcity:server-api:2020.1"),
	)
	f := newFixture(t, graph)
	f.publish("lib:a:1.0", "a")
	f.publish("lib:agent-part:1.0", "agent-part")
	f.publish("org.example:remote:zip:teamcity-agent-plugin:1.0", "remote")
	f.publish("org.example:bundled-tool:zip:tool:2.0", "tool")

	writeFile(t, filepath.Join(f.env.Project.BuildOutput, "kotlin-dsl", "sub", "Settings.xml"), "<dsl/>")
	writeFile(t, filepath.Join(f.base, "src", "main", "webapp", "plugins", "demo", "js", "app.js"), "app")
	writeFile(t, filepath.Join(f.base, "README.txt"), "readme")
	writeFile(t, filepath.Join(f.base, "extra-dir", "x", "y.txt"), "y")
	f.env.Project.Webapp = []string{filepath.Join(f.base, "src", "main", "webapp")}

	agent := f.agentConfig("lib:agent-part")
	server := f.serverConfig()
	server.PluginDependencies = []model.Coordinate{
		{Group: "org.example", Name: "bundled-tool", Version: "2.0", Type: "zip", Classifier: model.ClassifierTool},
	}
	server.Extras = []config.Extra{
		{Source: filepath.Join(f.base, "README.txt"), DestDir: "docs", DestName: "readme.txt"},
		{Source: filepath.Join(f.base, "extra-dir")},
		{Source: filepath.Join(f.base, "missing")},
	}
	server.IgnoreExtraFilesIn = []string{"native"}
	return f, agent, server
}

func runBoth(t *testing.T, f *fixture, agentCfg config.Agent, serverCfg config.Server) *Result {
	t.Helper()
	ctx := context.Background()
	agent, err := NewAgentWorkflow(f.env, agentCfg).Run(ctx)
	require.NoError(t, err)
	server, err := NewServerWorkflow(f.env, serverCfg, agentCfg.Spec, agent).Run(ctx)
	require.NoError(t, err)
	return server
}

func TestServerWorkflow_Layout(t *testing.T) {
	// --- Arrange ---
	f, agentCfg, serverCfg := serverFixture(t)
	root := f.work("plugin", "demo")
	writeFile(t, filepath.Join(root, "server", "stale.jar"), "stale")
	writeFile(t, filepath.Join(root, "native", "lib.so"), "native")

	// --- Act ---
	result := runBoth(t, f, agentCfg, serverCfg)

	// --- Assert ---
	assert.Contains(t, readFile(t, filepath.Join(root, "teamcity-plugin.xml")), "<name>demo</name>")
	assert.Equal(t, "a", readFile(t, filepath.Join(root, "server", "a-1.0.jar")))
	assert.NoFileExists(t, filepath.Join(root, "server", "agent-part-1.0.jar"), "agent selection is excluded")
	assert.NoFileExists(t, filepath.Join(root, "server", "server-api-2020.1.jar"))
	assert.FileExists(t, filepath.Join(root, "server", "demo-teamcity-plugin-resources.jar"))
	assert.Equal(t, "remote", readFile(t, filepath.Join(root, "agent", "remote.zip")))
	assert.FileExists(t, filepath.Join(root, "agent", "demo.zip"))
	assert.Equal(t, "tool", readFile(t, filepath.Join(root, "bundled", "bundled-tool-2.0-tool.zip")))
	assert.Equal(t, "<dsl/>", readFile(t, filepath.Join(root, "kotlin-dsl", "Settings.xml")))
	assert.Equal(t, "readme", readFile(t, filepath.Join(root, "docs", "readme.txt")))
	assert.Equal(t, "y", readFile(t, filepath.Join(root, "x", "y.txt")))
	assert.NoFileExists(t, filepath.Join(root, "server", "stale.jar"))
	assert.FileExists(t, filepath.Join(root, "native", "lib.so"))

	resources, err := archive.List(filepath.Join(root, "server", "demo-teamcity-plugin-resources.jar"))
	require.NoError(t, err)
	assert.Contains(t, resources, "buildServerResources/js/app.js")

	packed, err := archive.List(f.work("dist", "demo-packed.zip"))
	require.NoError(t, err)
	assert.Contains(t, packed, "demo/teamcity-plugin.xml")
	plain, err := archive.List(f.work("dist", "demo.zip"))
	require.NoError(t, err)
	assert.Contains(t, plain, "server/a-1.0.jar")

	assert.Equal(t, []string{
		"TC::SERVER::demo::EXPLODED",
		"TC::SERVER::demo::4IDEA",
		"TC::SERVER::demo",
		"TC::SERVER-PACKED::demo",
	}, contextNames(result.Contexts))

	var classifiers []string
	for _, a := range result.Attached {
		classifiers = append(classifiers, a.Classifier)
	}
	assert.Equal(t, []string{ClassifierResources, model.ClassifierServerPlugin, ClassifierServerPacked}, classifiers)

	exploded := result.Contexts[0]
	last := exploded.Sets[len(exploded.Sets)-1]
	assert.Equal(t, "agent", last.Dir)
	assert.Equal(t, []assembly.PathEntry{assembly.ArtifactRefEntry{AssemblyName: "TC::AGENT::demo"}}, last.Entries)
}

func TestServerWorkflow_ExplicitAgentDependency(t *testing.T) {
	f := newFixture(t, node("org.example:demo:pom:1.0"))
	f.publish("org.example:other:zip:teamcity-agent-plugin:3.0", "other")
	cfg := f.serverConfig()
	cfg.PluginDependencies = []model.Coordinate{
		{Group: "org.example", Name: "other", Version: "3.0", Type: "zip", Classifier: model.ClassifierAgentPlugin},
	}

	result, err := NewServerWorkflow(f.env, cfg, "", nil).Run(context.Background())

	require.NoError(t, err)
	assert.FileExists(t, f.work("plugin", "demo", "agent", "other.zip"))
	var refs []assembly.PathEntry
	for _, set := range result.Contexts[0].Sets {
		if set.Dir == "agent" {
			refs = append(refs, set.Entries...)
		}
	}
	assert.Equal(t, []assembly.PathEntry{
		assembly.ArtifactRefEntry{DestinationName: "other.zip", AssemblyName: "TC::AGENT::other::EXPLODED"},
	}, refs)
}

func TestServerWorkflow_RequiredKotlinDSL(t *testing.T) {
	f := newFixture(t, node("org.example:demo:pom:1.0"))
	cfg := f.serverConfig()
	cfg.RequireKotlinDSL = true

	_, err := NewServerWorkflow(f.env, cfg, "", nil).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kotlin dsl is required")
}

func TestServerWorkflow_Converges(t *testing.T) {
	// --- Arrange ---
	f, agentCfg, serverCfg := serverFixture(t)
	runBoth(t, f, agentCfg, serverCfg)
	first, err := fsutil.ListFiles(f.work("plugin"))
	require.NoError(t, err)

	// --- Act ---
	runBoth(t, f, agentCfg, serverCfg)

	// --- Assert ---
	second, err := fsutil.ListFiles(f.work("plugin"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAgentExclusions(t *testing.T) {
	assert.Equal(t, []string{"lib:a", "lib:b"}, agentExclusions("lib:a, lib:b"))
	assert.Empty(t, agentExclusions("*"))
	assert.Empty(t, agentExclusions(""))
}

func TestAlternative(t *testing.T) {
	f := newFixture(t, node("org.example:demo:war:1.0"))
	f.env.Project.Coordinate.Type = "war"
	war := model.Coordinate{Group: "org.example", Name: "demo", Version: "1.0", Type: "war"}

	t.Run("no attached jar", func(t *testing.T) {
		_, ok := f.env.alternative(context.Background(), war)
		assert.False(t, ok)
	})

	t.Run("single attached jar", func(t *testing.T) {
		jar := model.Coordinate{Group: "org.example", Name: "demo", Version: "1.0", Type: "jar", Classifier: "classes"}
		f.env.Project.Attached = []model.Coordinate{jar}
		got, ok := f.env.alternative(context.Background(), war)
		assert.True(t, ok)
		assert.Equal(t, jar, got)
	})

	t.Run("foreign war is kept", func(t *testing.T) {
		foreign := model.Coordinate{Group: "com.other", Name: "web", Version: "1.0", Type: "war"}
		got, ok := f.env.alternative(context.Background(), foreign)
		assert.True(t, ok)
		assert.Equal(t, foreign, got)
	})

	t.Run("pom is skipped", func(t *testing.T) {
		_, ok := f.env.alternative(context.Background(), model.Coordinate{Group: "a", Name: "b", Type: "pom"})
		assert.False(t, ok)
	})
}
