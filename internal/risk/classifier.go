// Package risk classifies a drug against a patient phenotype by searching the
// drug's guideline text for a keyword derived from the phenotype.
//
// This is a heuristic and not a gene-matched lookup: the guideline's gene
// reference is never compared with the phenotype's gene, so a keyword that
// happens to appear in unrelated advice still counts as a match. Callers and
// reports depend on that behaviour.
package risk

import (
	"fmt"

	"github.com/pharmaguard-pgx-server/internal/domain"
)

// NotFoundSource is the source label reported for drugs with no guideline.
const NotFoundSource = "N/A"

// Guidelines is the read side of the drug guideline store.
type Guidelines interface {
	Lookup(drug string) (domain.DrugGuideline, bool)
}

// Strategy assigns a risk level given guideline advice and a phenotype.
type Strategy interface {
	Assess(adviceText, phenotype string) domain.AssessmentLevel
}

// Classifier resolves guidance for a drug and delegates tiering to a Strategy.
type Classifier struct {
	guidelines Guidelines
	strategy   Strategy
}

// NewClassifier uses KeywordStrategy unless another strategy is supplied.
func NewClassifier(guidelines Guidelines, strategy Strategy) *Classifier {
	if strategy == nil {
		strategy = KeywordStrategy{}
	}
	return &Classifier{
		guidelines: guidelines,
		strategy:   strategy,
	}
}

// Classify returns the assessment for drug given phenotype. It never fails:
// a drug without guidance yields an Unknown assessment.
func (c *Classifier) Classify(drug, phenotype string) domain.RiskAssessment {
	guideline, ok := c.guidelines.Lookup(drug)
	if !ok {
		return domain.RiskAssessment{
			DrugName:     drug,
			Phenotype:    phenotype,
			Level:        domain.Unknown,
			GuidanceText: fmt.Sprintf("No data found for %s", drug),
			SourceLabel:  NotFoundSource,
		}
	}

	return domain.RiskAssessment{
		DrugName:     drug,
		Phenotype:    phenotype,
		Level:        c.strategy.Assess(guideline.AdviceText, phenotype),
		GuidanceText: guideline.AdviceText,
		SourceLabel:  guideline.SourceLabel,
	}
}
