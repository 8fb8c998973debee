package selector

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/specialistvlad/plugasm/internal/asmerr"
	"github.com/specialistvlad/plugasm/internal/model"
)

// maxTokens is the number of coordinate fields a pattern can address:
// group, name, type and version.
const maxTokens = 4

// Pattern is a colon separated coordinate glob, for example
// "org.jetbrains.*", "::zip" or "lib:a:jar:2.*". An empty token or "*"
// matches anything; other tokens are glob matched against the field.
type Pattern struct {
	raw    string
	tokens []string
}

// ParsePattern validates and compiles a single pattern.
func ParsePattern(s string) (Pattern, error) {
	raw := strings.TrimSpace(s)
	tokens := strings.Split(raw, ":")
	if len(tokens) > maxTokens {
		return Pattern{}, asmerr.Newf(asmerr.MalformedSpec, "parse pattern",
			"%q has %d tokens, at most %d (group:name:type:version) are allowed", raw, len(tokens), maxTokens)
	}
	for i, token := range tokens {
		token = strings.TrimSpace(token)
		if !doublestar.ValidatePattern(token) {
			return Pattern{}, asmerr.Newf(asmerr.MalformedSpec, "parse pattern", "%q: invalid glob in token %q", raw, token)
		}
		tokens[i] = token
	}
	return Pattern{raw: raw, tokens: tokens}, nil
}

// String returns the pattern as written.
func (p Pattern) String() string {
	return p.raw
}

// Matches reports whether the coordinate satisfies every token of the
// pattern.
func (p Pattern) Matches(c model.Coordinate) bool {
	fields := [maxTokens]string{c.Group, c.Name, c.Type, c.Version}
	if fields[2] == "" {
		fields[2] = model.DefaultType
	}
	for i, token := range p.tokens {
		if !matchToken(token, fields[i]) {
			return false
		}
	}
	return true
}

func matchToken(token, value string) bool {
	if token == "" || token == "*" {
		return true
	}
	ok, err := doublestar.Match(token, value)
	return err == nil && ok
}

// Patterns is a list of patterns matched with "any" semantics.
type Patterns []Pattern

// ParsePatterns compiles a list of patterns. Blank entries are ignored.
func ParsePatterns(list []string) (Patterns, error) {
	patterns := make(Patterns, 0, len(list))
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p, err := ParsePattern(s)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// ParseSpec splits a comma separated selection spec into patterns.
func ParseSpec(spec string) (Patterns, error) {
	patterns, err := ParsePatterns(strings.Split(spec, ","))
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return nil, asmerr.Newf(asmerr.MalformedSpec, "parse spec", "%q contains no patterns", spec)
	}
	return patterns, nil
}

// MatchesAny reports whether any pattern matches the coordinate.
func (ps Patterns) MatchesAny(c model.Coordinate) bool {
	for _, p := range ps {
		if p.Matches(c) {
			return true
		}
	}
	return false
}

// Strings returns the patterns as written.
func (ps Patterns) Strings() []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

// IsMatchAll reports whether spec is one of the sentinels selecting the
// whole graph.
func IsMatchAll(spec string) bool {
	switch strings.TrimSpace(spec) {
	case "*", ".":
		return true
	default:
		return false
	}
}
