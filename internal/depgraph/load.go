package depgraph

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/specialistvlad/plugasm/internal/ctxlog"
	"github.com/specialistvlad/plugasm/internal/model"
	"gopkg.in/yaml.v3"
)

type graphFile struct {
	Root *nodeFile `yaml:"root"`
}

type nodeFile struct {
	Coordinate string `yaml:"coordinate"`
	// Field form, used when Coordinate is empty.
	Group      string `yaml:"group"`
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Type       string `yaml:"type"`
	Classifier string `yaml:"classifier"`

	Scope    string        `yaml:"scope"`
	Local    bool          `yaml:"local"`
	Conflict *conflictFile `yaml:"conflict"`
	Children []*nodeFile   `yaml:"children"`
}

type conflictFile struct {
	WinningVersion string `yaml:"winning_version"`
}

// Parse decodes a graph document.
func Parse(data []byte) (*model.GraphNode, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("depgraph: graph document is empty")
	}
	var doc graphFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("depgraph: decode graph: %w", err)
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("depgraph: graph has no root node")
	}
	return doc.Root.toNode("root")
}

// Load reads and decodes the graph file at path.
func Load(ctx context.Context, path string) (*model.GraphNode, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading dependency graph.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("depgraph: read %s: %w", path, err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	count := 0
	_ = root.Walk(func(*model.GraphNode) error {
		count++
		return nil
	})
	logger.Debug("Dependency graph loaded.", "path", path, "nodes", count)
	return root, nil
}

func (f *nodeFile) toNode(where string) (*model.GraphNode, error) {
	c, err := f.coordinate()
	if err != nil {
		return nil, fmt.Errorf("depgraph: %s: %w", where, err)
	}

	node := model.NewGraphNode(c)
	node.Scope = f.Scope
	node.Local = f.Local
	if f.Conflict != nil && f.Conflict.WinningVersion != "" {
		node.Conflict = &model.ConflictInfo{WinningVersion: f.Conflict.WinningVersion}
	}
	for i, childFile := range f.Children {
		if childFile == nil {
			return nil, fmt.Errorf("depgraph: %s: child %d is empty", where, i)
		}
		child, err := childFile.toNode(fmt.Sprintf("%s > %s", where, c.Name))
		if err != nil {
			return nil, err
		}
		node.AddChild(child)
	}
	return node, nil
}

func (f *nodeFile) coordinate() (model.Coordinate, error) {
	if f.Coordinate != "" {
		c, err := model.ParseCoordinate(f.Coordinate)
		if err != nil {
			return model.Coordinate{}, err
		}
		// Explicit fields refine the short string form.
		if f.Classifier != "" {
			c.Classifier = f.Classifier
		}
		if f.Type != "" {
			c.Type = f.Type
		}
		return c, nil
	}
	if f.Group == "" || f.Name == "" {
		return model.Coordinate{}, fmt.Errorf("node needs a coordinate or group and name")
	}
	c := model.Coordinate{
		Group:      f.Group,
		Name:       f.Name,
		Version:    f.Version,
		Type:       f.Type,
		Classifier: f.Classifier,
	}
	if c.Type == "" {
		c.Type = model.DefaultType
	}
	return c, nil
}
