package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the top-level structure of a catalog YAML file.
type fileSchema struct {
	Diseases []*Disease `yaml:"diseases"`
}

// Loader handles loading and parsing of a disease catalog file.
type Loader struct {
	filePath string
}

// NewLoader creates a new catalog loader for the given file.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load reads and parses the catalog file.
func (l *Loader) Load() ([]*Disease, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var config fileSchema
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}

	for _, d := range config.Diseases {
		if d.Name == "" {
			return nil, fmt.Errorf("catalog entry without a name in %s", l.filePath)
		}
	}

	return config.Diseases, nil
}
