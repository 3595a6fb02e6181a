package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseProjectYAML parses a Project from YAML bytes, fills defaults and validates it.
func ParseProjectYAML(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project yaml: %w", err)
	}

	applyDefaults(&p)
	if err := validateProject(&p); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}

	return &p, nil
}

// ParseProjectYAMLString parses a Project from a YAML string and validates it.
func ParseProjectYAMLString(yamlText string) (*Project, error) {
	return ParseProjectYAML([]byte(yamlText))
}
