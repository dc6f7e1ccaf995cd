// Package devseed loads development seed files for the mock CRM backend.
package devseed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Tables maps a table name to the rows seeded into it. Rows are plain JSON
// objects; an "id" field, when present, pins the row identifier.
type Tables map[string][]map[string]any

// LoadTables reads a seed file and decodes it into Tables. The format is
// chosen by extension: .yaml/.yml are parsed as YAML, everything else as
// JSON.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devseed: read %s: %w", path, err)
	}

	var tables Tables
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tables); err != nil {
			return nil, fmt.Errorf("devseed: parse YAML seed %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &tables); err != nil {
			return nil, fmt.Errorf("devseed: parse JSON seed %s: %w", path, err)
		}
	}

	for table := range tables {
		if strings.TrimSpace(table) == "" {
			return nil, fmt.Errorf("devseed: seed file %s contains an unnamed table", path)
		}
	}
	return tables, nil
}
