package selector

import (
	"testing"

	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_Matches(t *testing.T) {
	core := model.Coordinate{Group: "org.jetbrains.teamcity", Name: "server-api", Version: "2024.1", Type: "jar"}
	agentZip := model.Coordinate{Group: "org.example", Name: "demo-agent", Version: "1.0", Type: "zip", Classifier: "teamcity-agent-plugin"}
	noType := model.Coordinate{Group: "lib", Name: "a", Version: "1.0"}

	testCases := []struct {
		pattern string
		c       model.Coordinate
		want    bool
	}{
		{pattern: "org.jetbrains.teamcity", c: core, want: true},
		{pattern: "org.jetbrains", c: core, want: false},
		{pattern: "org.jetbrains.*", c: core, want: true},
		{pattern: "*.teamcity", c: core, want: true},
		{pattern: "*jetbrains*", c: core, want: true},
		{pattern: "::zip", c: agentZip, want: true},
		{pattern: "::zip", c: core, want: false},
		{pattern: "*:*:*:2024.*", c: core, want: true},
		{pattern: "org.example:demo-agent", c: agentZip, want: true},
		{pattern: "org.example:demo-{agent,server}", c: agentZip, want: true},
		{pattern: "lib:a:jar", c: noType, want: true},
		{pattern: "lib:a:jar:1.?", c: noType, want: true},
		{pattern: "lib:a:jar:2.0", c: noType, want: false},
		{pattern: "*", c: core, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern+" vs "+tc.c.String(), func(t *testing.T) {
			p, err := ParsePattern(tc.pattern)
			require.NoError(t, err)
			assert.Equal(t, tc.want, p.Matches(tc.c))
		})
	}
}

func TestParsePattern_Malformed(t *testing.T) {
	for _, s := range []string{"a:b:c:d:e", "lib:[a"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParsePattern(s)
			require.Error(t, err)
			assert.True(t, asmerr.Is(err, asmerr.MalformedSpec))
		})
	}
}

func TestParseSpec(t *testing.T) {
	t.Run("splits on commas and trims", func(t *testing.T) {
		ps, err := ParseSpec(" org.example:demo-agent , lib:* ,")
		require.NoError(t, err)
		assert.Equal(t, []string{"org.example:demo-agent", "lib:*"}, ps.Strings())
	})

	t.Run("blank spec is malformed", func(t *testing.T) {
		_, err := ParseSpec(" , ")
		require.Error(t, err)
		assert.True(t, asmerr.Is(err, asmerr.MalformedSpec))
	})
}

func TestIsMatchAll(t *testing.T) {
	assert.True(t, IsMatchAll("*"))
	assert.True(t, IsMatchAll(" . "))
	assert.False(t, IsMatchAll("lib:*"))
	assert.False(t, IsMatchAll(""))
}
