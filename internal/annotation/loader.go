package annotation

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// tableFile is the on-disk layout of an annotation table.
type tableFile struct {
	Variants []domain.VariantDefinition `yaml:"variants"`
}

// LoadYAML reads a table from YAML. The variants sequence order becomes the table order.
func LoadYAML(r io.Reader) (*Table, error) {
	var file tableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decoding yaml: %v", domain.ErrInvalidTable, err)
	}
	if len(file.Variants) == 0 {
		return nil, fmt.Errorf("%w: no variants defined", domain.ErrInvalidTable)
	}
	return NewTable(file.Variants...)
}

// LoadFile reads a YAML table from disk. An empty path returns the built-in panel.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening annotation table: %w", err)
	}
	defer f.Close()

	return LoadYAML(f)
}
