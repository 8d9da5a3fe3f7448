package model

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed columns.yaml
var defaultColumns []byte

// ExportManifest declares the ordered column list for tabular export.
type ExportManifest struct {
	Columns []string `yaml:"columns"`
}

// DefaultManifest returns the built-in column manifest.
func DefaultManifest() *ExportManifest {
	m, err := parseManifest(defaultColumns)
	if err != nil {
		// The embedded manifest is compiled in; a parse failure is a build
		// defect, not a runtime condition.
		panic(err)
	}
	return m
}

// LoadManifest reads a column manifest from a YAML file.
func LoadManifest(path string) (*ExportManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read manifest %s", path)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, eris.Wrapf(err, "model: parse manifest %s", path)
	}
	return m, nil
}

func parseManifest(data []byte) (*ExportManifest, error) {
	var m ExportManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrap(err, "model: unmarshal manifest")
	}
	if len(m.Columns) == 0 {
		return nil, eris.New("model: manifest declares no columns")
	}
	return &m, nil
}

// Has reports whether the manifest includes the named column.
func (m *ExportManifest) Has(col string) bool {
	for _, c := range m.Columns {
		if c == col {
			return true
		}
	}
	return false
}
