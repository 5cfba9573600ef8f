// Package phenotype resolves observed genotypes to one phenotype finding per gene.
package phenotype

import (
	"fmt"

	"github.com/pharmaguard-pgx-server/internal/annotation"
	"github.com/pharmaguard-pgx-server/internal/domain"
)

// severity ranks phenotype labels; a higher value wins when two variants of
// the same gene disagree. Unlisted labels rank 0.
var severity = map[string]int{
	"Poor Metabolizer":         5,
	"Poor Function":            5,
	"Ultrarapid Metabolizer":   4,
	"Rapid Metabolizer":        4,
	"Intermediate Metabolizer": 3,
	"Decreased Function":       3,
	"Normal Metabolizer":       1,
	"Normal Function":          1,
}

// Priority returns the severity rank of a phenotype label.
func Priority(phenotype string) int {
	return severity[phenotype]
}

// Resolve produces exactly one finding per gene in the table.
//
// Every definition is visited, observed or not; variants missing from observed
// resolve as wild-type. When a later definition of an already-seen gene yields a
// strictly higher priority phenotype it replaces the earlier finding in place,
// so output order is the first-occurrence order of each gene.
func Resolve(table *annotation.Table, observed domain.ObservedGenotypes) []domain.GeneFinding {
	var findings []domain.GeneFinding
	byGene := make(map[string]int)

	for _, def := range table.Definitions() {
		finding := resolveDefinition(table, def, observed.Get(def.VariantID))

		i, seen := byGene[def.Gene]
		if !seen {
			byGene[def.Gene] = len(findings)
			findings = append(findings, finding)
			continue
		}

		if Priority(finding.Phenotype) > Priority(findings[i].Phenotype) {
			findings[i] = finding
		}
	}

	return findings
}

func resolveDefinition(table *annotation.Table, def domain.VariantDefinition, gt domain.Genotype) domain.GeneFinding {
	phenotype, ok := def.GenotypeToPhenotype[gt]
	if !ok {
		phenotype = table.BaselinePhenotype(def.Gene)
	}

	return domain.GeneFinding{
		Gene:            def.Gene,
		VariantID:       def.VariantID,
		DisplayGenotype: DisplayGenotype(gt, def.AlleleLabel),
		Phenotype:       phenotype,
		RawGenotype:     gt,
	}
}

// DisplayGenotype renders a genotype in star-allele notation, with *1 as the reference allele.
func DisplayGenotype(gt domain.Genotype, allele string) string {
	switch gt {
	case domain.HomozygousReference:
		return "*1/*1"
	case domain.Heterozygous:
		return fmt.Sprintf("*1/%s", allele)
	case domain.HomozygousVariant:
		return fmt.Sprintf("%s/%s", allele, allele)
	default:
		return fmt.Sprintf("%s/?", allele)
	}
}
