package suite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/pipecheck/internal/pipeline"
)

// Definition is the on-disk YAML form of a custom suite.
//
// Example:
//
//	name: api-release
//	description: Build and ship the API
//	steps:
//	  - id: build
//	    name: Build
//	    phase: build
//	    timeout: 10m
//	    critical: true
//	    criteria:
//	      required: [compiled_binary]
//	      min_coverage: 80
type Definition struct {
	Name        string           `yaml:"name" validate:"required"`
	Description string           `yaml:"description"`
	Phases      []pipeline.Phase `yaml:"phases" validate:"dive,phase"`
	Steps       []pipeline.Step  `yaml:"steps" validate:"dive"`
}

// LoadDefinition reads and validates a suite definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite definition: %w", err)
	}

	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// ParseDefinition decodes and validates a YAML suite definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing suite definition: %w", err)
	}

	if err := NewStructValidator().Struct(def); err != nil {
		return nil, fmt.Errorf("validating suite definition: %w", err)
	}
	return &def, nil
}

// Build registers the definition as a custom suite.
func (d *Definition) Build(b *Builder) (*pipeline.Suite, error) {
	return b.BuildCustom(d.Name, d.Description, d.Phases, d.Steps)
}
