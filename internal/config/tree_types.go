package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mamadbah2/farmer-market/internal/domain/models"
)

type treeTypesFile struct {
	TreeTypes []models.TreeType `yaml:"tree_types"`
}

// LoadTreeTypes reads the species seed file. A missing file yields no types.
func LoadTreeTypes(path string) ([]models.TreeType, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tree types %s: %w", path, err)
	}

	var file treeTypesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse tree types %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.TreeTypes))
	for i, tt := range file.TreeTypes {
		if tt.Code == "" || tt.Name == "" {
			return nil, fmt.Errorf("tree type #%d: code and name are required", i+1)
		}
		if _, dup := seen[tt.Code]; dup {
			return nil, fmt.Errorf("tree type %q declared twice", tt.Code)
		}
		seen[tt.Code] = struct{}{}
	}

	return file.TreeTypes, nil
}
