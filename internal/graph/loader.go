package graph

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/risk-engine/internal/model"
)

// fileSchema is the YAML shape for a graph fixture file.
type fileSchema struct {
	Sites         []model.Site         `yaml:"sites"`
	Suppliers     []model.Supplier     `yaml:"suppliers"`
	Relationships []model.Relationship `yaml:"relationships"`
}

// LoadFile reads a graph snapshot from a YAML file. Used in local mode and
// tests; production deployments load the graph from the store instead.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "graph: read %s", path)
	}

	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "graph: parse %s", path)
	}

	if len(f.Sites) == 0 && len(f.Suppliers) == 0 {
		return nil, eris.Errorf("graph: %s contains no entities", path)
	}

	return New(f.Sites, f.Suppliers, f.Relationships), nil
}
