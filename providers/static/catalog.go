package static

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/FabienTschanz/DSCParser/core"
)

// catalogDoc is the on-disk catalog shape, shared between JSON and YAML.
type catalogDoc struct {
	Resources []catalogResource `json:"resources" yaml:"resources"`
}

type catalogResource struct {
	Name       string            `json:"name" yaml:"name"`
	Module     string            `json:"module,omitempty" yaml:"module,omitempty"`
	Version    string            `json:"version,omitempty" yaml:"version,omitempty"`
	Properties []catalogProperty `json:"properties" yaml:"properties"`
}

type catalogProperty struct {
	Name          string   `json:"name" yaml:"name"`
	Type          string   `json:"type" yaml:"type"`
	Mandatory     bool     `json:"mandatory,omitempty" yaml:"mandatory,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty" yaml:"allowedValues,omitempty"`
}

// LoadFile loads a catalog file, dispatching on extension (.json, .yaml,
// .yml).
func LoadFile(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(data)
	case ".yaml", ".yml":
		return LoadYAML(data)
	}
	return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
}

// LoadJSON builds a provider from a JSON catalog document.
func LoadJSON(data []byte) (*Provider, error) {
	var doc catalogDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse JSON catalog: %w", err)
	}
	return doc.provider()
}

// LoadYAML builds a provider from a YAML catalog document.
func LoadYAML(data []byte) (*Provider, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML catalog: %w", err)
	}
	return doc.provider()
}

func (d catalogDoc) provider() (*Provider, error) {
	p := New()
	for i, r := range d.Resources {
		if r.Name == "" {
			return nil, fmt.Errorf("catalog resource %d has no name", i)
		}
		s := &core.ResourceSchema{
			ResourceName:  r.Name,
			ModuleName:    r.Module,
			ModuleVersion: r.Version,
		}
		for _, cp := range r.Properties {
			if cp.Name == "" {
				return nil, fmt.Errorf("catalog resource %q has an unnamed property", r.Name)
			}
			s.Properties = append(s.Properties, core.PropertySchema{
				Name:          cp.Name,
				Type:          core.ParseTypeTag(cp.Type),
				Mandatory:     cp.Mandatory,
				AllowedValues: cp.AllowedValues,
			})
		}
		p.Add(s)
	}
	return p, nil
}
