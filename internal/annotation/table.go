// Package annotation holds the static variant annotation table: which variant IDs the
// engine tracks, the gene and star allele each one tags, and the genotype to phenotype
// mapping used by the resolver.
package annotation

import (
	"fmt"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// Table is an ordered, immutable set of variant definitions.
// Iteration order is the order the definitions were supplied in.
type Table struct {
	defs  []domain.VariantDefinition
	index map[string]int
}

// NewTable validates the definitions and builds a table from them.
// Definitions are copied so later mutation by the caller has no effect.
func NewTable(defs ...domain.VariantDefinition) (*Table, error) {
	t := &Table{
		defs:  make([]domain.VariantDefinition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("%w: definition %d: %v", domain.ErrInvalidTable, i, err)
		}
		if _, dup := t.index[def.VariantID]; dup {
			return nil, fmt.Errorf("%w: duplicate variant id %s", domain.ErrInvalidTable, def.VariantID)
		}

		phenotypes := make(map[domain.Genotype]string, len(def.GenotypeToPhenotype))
		for gt, p := range def.GenotypeToPhenotype {
			phenotypes[gt] = p
		}
		def.GenotypeToPhenotype = phenotypes

		t.index[def.VariantID] = len(t.defs)
		t.defs = append(t.defs, def)
	}

	return t, nil
}

// MustTable is like NewTable but panics on invalid input.
// Use it only for tables built at process start.
func MustTable(defs ...domain.VariantDefinition) *Table {
	t, err := NewTable(defs...)
	if err != nil {
		panic(err)
	}
	return t
}

func validateDefinition(def domain.VariantDefinition) error {
	if def.VariantID == "" {
		return fmt.Errorf("variant id is required")
	}
	if def.Gene == "" {
		return fmt.Errorf("%s: gene is required", def.VariantID)
	}
	if def.AlleleLabel == "" {
		return fmt.Errorf("%s: allele label is required", def.VariantID)
	}
	if def.FunctionalImpact != "" && !def.FunctionalImpact.IsValid() {
		return fmt.Errorf("%s: unknown functional impact %q", def.VariantID, def.FunctionalImpact)
	}
	for _, gt := range domain.RequiredGenotypes {
		if p, ok := def.GenotypeToPhenotype[gt]; !ok || p == "" {
			return fmt.Errorf("%s: missing phenotype for genotype %s", def.VariantID, gt)
		}
	}
	return nil
}

// Len returns the number of definitions.
func (t *Table) Len() int {
	return len(t.defs)
}

// Lookup returns the definition for a variant ID.
func (t *Table) Lookup(variantID string) (domain.VariantDefinition, bool) {
	i, ok := t.index[variantID]
	if !ok {
		return domain.VariantDefinition{}, false
	}
	return t.defs[i], true
}

// Contains reports whether the variant ID is annotated.
func (t *Table) Contains(variantID string) bool {
	_, ok := t.index[variantID]
	return ok
}

// Definitions returns the definitions in table order.
// The returned slice is a copy; the phenotype maps are shared and must not be modified.
func (t *Table) Definitions() []domain.VariantDefinition {
	out := make([]domain.VariantDefinition, len(t.defs))
	copy(out, t.defs)
	return out
}

// Genes lists the distinct genes in first-occurrence order.
func (t *Table) Genes() []string {
	seen := make(map[string]bool)
	var genes []string
	for _, def := range t.defs {
		if !seen[def.Gene] {
			seen[def.Gene] = true
			genes = append(genes, def.Gene)
		}
	}
	return genes
}

// BaselinePhenotype returns the wild-type label of the gene's first definition,
// falling back to "Normal Metabolizer" for genes the table does not know.
func (t *Table) BaselinePhenotype(gene string) string {
	for _, def := range t.defs {
		if def.Gene == gene {
			return def.GenotypeToPhenotype[domain.HomozygousReference]
		}
	}
	return DefaultBaseline
}

// DefaultBaseline is the phenotype used when no gene-specific baseline exists.
const DefaultBaseline = "Normal Metabolizer"
