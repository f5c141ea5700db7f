// Package compiler turns document definitions written in YAML or CUE into
// ir.DocumentSpec values and builds documents from them.
package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/featuregraph/internal/ir"
)

// Load reads a definition from path. Directories and .cue files are loaded
// as CUE, .yaml and .yml files as YAML.
func Load(path string) (*ir.DocumentSpec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load definition: %w", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".cue":
		return LoadCUE(path)
	default:
		return nil, fmt.Errorf("load definition %s: unsupported file type %q", path, filepath.Ext(path))
	}
}

// yamlDocument is the on-disk YAML shape.
type yamlDocument struct {
	Document string       `yaml:"document"`
	Objects  []yamlObject `yaml:"objects"`
}

type yamlObject struct {
	Name       string                `yaml:"name"`
	Type       string                `yaml:"type"`
	Label      string                `yaml:"label"`
	Properties map[string]any        `yaml:"properties"`
	Links      map[string]targetList `yaml:"links"`
}

// targetList accepts a single object name or a list of names.
type targetList []string

func (l *targetList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*l = targetList{n.Value}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := n.Decode(&names); err != nil {
			return err
		}
		*l = names
		return nil
	default:
		return fmt.Errorf("line %d: link targets must be a name or a list of names", n.Line)
	}
}

// LoadYAML reads a YAML definition. The document name defaults to the file
// name without its extension.
func LoadYAML(path string) (*ir.DocumentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	base := filepath.Base(path)
	return ParseYAML(data, strings.TrimSuffix(base, filepath.Ext(base)))
}

// ParseYAML decodes a YAML definition. Unknown keys are rejected.
func ParseYAML(data []byte, defaultName string) (*ir.DocumentSpec, error) {
	var raw yamlDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}

	spec := &ir.DocumentSpec{Name: raw.Document, Objects: make([]ir.ObjectSpec, 0, len(raw.Objects))}
	if spec.Name == "" {
		spec.Name = defaultName
	}
	for i, src := range raw.Objects {
		obj := ir.ObjectSpec{
			Name:  src.Name,
			Type:  src.Type,
			Label: src.Label,
		}
		if len(src.Properties) > 0 {
			props, err := ir.FromGo(src.Properties)
			if err != nil {
				return nil, &CompileError{
					Field:   fmt.Sprintf("objects[%d].properties", i),
					Message: err.Error(),
				}
			}
			obj.Properties = props.(ir.IRObject)
		}
		if len(src.Links) > 0 {
			obj.Links = make(map[string][]string, len(src.Links))
			for prop, targets := range src.Links {
				obj.Links[prop] = []string(targets)
			}
		}
		spec.Objects = append(spec.Objects, obj)
	}
	return spec, nil
}
