package annotation

import (
	"github.com/pharmaguard-pgx-server/internal/domain"
)

func metabolizer(intermediate, homozygous string) map[domain.Genotype]string {
	return map[domain.Genotype]string{
		domain.HomozygousReference: "Normal Metabolizer",
		domain.Heterozygous:        intermediate,
		domain.HomozygousVariant:   homozygous,
	}
}

// DefaultDefinitions returns the built-in CPIC panel.
// CYP2D6 and CYP2C19 each carry two definitions so the resolver's per-gene
// priority logic is exercised on real data.
func DefaultDefinitions() []domain.VariantDefinition {
	return []domain.VariantDefinition{
		// CYP2D6: codeine, tamoxifen
		{
			VariantID:           "rs3892097",
			Gene:                "CYP2D6",
			AlleleLabel:         "*4",
			FunctionalImpact:    domain.LossOfFunction,
			GenotypeToPhenotype: metabolizer("Intermediate Metabolizer", "Poor Metabolizer"),
		},
		{
			VariantID:           "rs1065852",
			Gene:                "CYP2D6",
			AlleleLabel:         "*10",
			FunctionalImpact:    domain.DecreasedFunction,
			GenotypeToPhenotype: metabolizer("Intermediate Metabolizer", "Intermediate Metabolizer"),
		},
		// CYP2C19: clopidogrel, SSRIs
		{
			VariantID:           "rs12248560",
			Gene:                "CYP2C19",
			AlleleLabel:         "*17",
			FunctionalImpact:    domain.IncreasedFunction,
			GenotypeToPhenotype: metabolizer("Rapid Metabolizer", "Ultrarapid Metabolizer"),
		},
		{
			VariantID:           "rs4244285",
			Gene:                "CYP2C19",
			AlleleLabel:         "*2",
			FunctionalImpact:    domain.LossOfFunction,
			GenotypeToPhenotype: metabolizer("Intermediate Metabolizer", "Poor Metabolizer"),
		},
		// CYP2C9: warfarin
		{
			VariantID:           "rs1799853",
			Gene:                "CYP2C9",
			AlleleLabel:         "*2",
			FunctionalImpact:    domain.DecreasedFunction,
			GenotypeToPhenotype: metabolizer("Intermediate Metabolizer", "Poor Metabolizer"),
		},
		// SLCO1B1: statins (transporter, so "Function" labels)
		{
			VariantID:        "rs4149056",
			Gene:             "SLCO1B1",
			AlleleLabel:      "*5",
			FunctionalImpact: domain.DecreasedFunction,
			GenotypeToPhenotype: map[domain.Genotype]string{
				domain.HomozygousReference: "Normal Function",
				domain.Heterozygous:        "Decreased Function",
				domain.HomozygousVariant:   "Poor Function",
			},
		},
		// DPYD: fluoropyrimidines
		{
			VariantID:           "rs3918290",
			Gene:                "DPYD",
			AlleleLabel:         "*2A",
			FunctionalImpact:    domain.LossOfFunction,
			GenotypeToPhenotype: metabolizer("Intermediate Metabolizer", "Poor Metabolizer"),
		},
		// TPMT: thiopurines
		{
			VariantID:           "rs1142345",
			Gene:                "TPMT",
			AlleleLabel:         "*3A",
			FunctionalImpact:    domain.LossOfFunction,
			GenotypeToPhenotype: metabolizer("Intermediate Metabolizer", "Poor Metabolizer"),
		},
	}
}

// Default returns the built-in panel as a table.
func Default() *Table {
	return MustTable(DefaultDefinitions()...)
}
