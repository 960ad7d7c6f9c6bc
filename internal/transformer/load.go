package transformer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the layout of a transformation file.
type File struct {
	Transformations []Step `yaml:"transformations"`
}

// LoadFile reads steps from a JSON or YAML transformation file.
func LoadFile(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transformation file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse transformation file: %w", err)
	}
	return f.Transformations, nil
}
